package cmd

import (
	"errors"
	"fmt"
	"io"
	"sync/atomic"
)

var ErrSignInRequired = errors.New("sign in required")

// terminalNavigator turns the sign in transition into a hint on stderr.
type terminalNavigator struct {
	w     io.Writer
	asked atomic.Bool
}

func (n *terminalNavigator) SignIn() {
	if n.asked.Swap(true) {
		return
	}
	fmt.Fprintln(n.w, "You need to sign in first: safespace login <email>")
}

func (n *terminalNavigator) Asked() bool {
	return n.asked.Load()
}
