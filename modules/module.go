// Package modules defines the extension point used to handle messages
// beyond session and entity management.
package modules

import (
	"context"

	"github.com/aukilabs/spatial/messages"
	"github.com/aukilabs/spatial/models"
)

// Module is the interface that describes a module that extends the server
// capabilities.
type Module interface {
	// Returns the module name.
	Name() string

	// Initializes the module.
	Init(*models.Session, *models.Participant)

	// Handles a given message. Modules are free to decide whether they handle a
	// message.
	//
	// Returning messages.ErrModuleMsgSkip indicates that handling a message
	// was skipped.
	//
	// Errors typed as bad requests are reported to the client. Any other
	// returned error causes the current WebSocket client to be disconnected.
	HandleMsg(context.Context, messages.ResponseSender, messages.Msg) error

	// Handles a client disconnection or a session leave.
	HandleDisconnect()
}
