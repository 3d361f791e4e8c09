// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"

	"github.com/ardanlabs/ledger/app/services/node/handlers/v1/private"
	"github.com/ardanlabs/ledger/app/services/node/handlers/v1/public"
	"github.com/ardanlabs/ledger/foundation/blockchain/state"
	"github.com/ardanlabs/ledger/foundation/events"
	"github.com/ardanlabs/ledger/foundation/nameservice"
	"github.com/ardanlabs/ledger/foundation/web"
	"go.uber.org/zap"
)

// group is empty since peers address each other by bare paths.
const group = ""

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log   *zap.SugaredLogger
	State *state.State
	NS    *nameservice.NameService
	Evts  *events.Events
}

// PublicRoutes binds all the version 1 routes used by clients.
func PublicRoutes(app *web.App, cfg Config) {
	pbl := public.Handlers{
		Log:   cfg.Log,
		State: cfg.State,
		NS:    cfg.NS,
		Evts:  cfg.Evts,
	}

	app.Handle(http.MethodGet, group, "/events", pbl.Events)
	app.Handle(http.MethodGet, group, "/blockchain", pbl.Blockchain)
	app.Handle(http.MethodPost, group, "/transaction/broadcast", pbl.BroadcastTransaction)
	app.Handle(http.MethodGet, group, "/mine", pbl.Mine)
	app.Handle(http.MethodPost, group, "/register-and-broadcast-node", pbl.RegisterAndBroadcastNode)
	app.Handle(http.MethodGet, group, "/consensus", pbl.Consensus)
	app.Handle(http.MethodGet, group, "/block/:blockHash", pbl.QueryBlock)
	app.Handle(http.MethodGet, group, "/transaction/:transactionId", pbl.QueryTransaction)
	app.Handle(http.MethodGet, group, "/address/:address", pbl.QueryAddress)
}

// PrivateRoutes binds all the version 1 routes used between nodes.
func PrivateRoutes(app *web.App, cfg Config) {
	prv := private.Handlers{
		Log:   cfg.Log,
		State: cfg.State,
	}

	app.Handle(http.MethodPost, group, "/transaction", prv.SubmitNodeTransaction)
	app.Handle(http.MethodPost, group, "/receive-new-block", prv.ReceiveNewBlock)
	app.Handle(http.MethodPost, group, "/register-node", prv.RegisterNode)
	app.Handle(http.MethodPost, group, "/register-nodes-bulk", prv.RegisterNodesBulk)
}
