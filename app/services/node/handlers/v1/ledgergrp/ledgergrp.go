// Package ledgergrp maintains the group of handlers for ledger access.
package ledgergrp

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/ardanlabs/utxochain/business/sys/metrics"
	"github.com/ardanlabs/utxochain/business/web/errs"
	"github.com/ardanlabs/utxochain/foundation/blockchain/state"
	"github.com/ardanlabs/utxochain/foundation/events"
	"github.com/ardanlabs/utxochain/foundation/validate"
	"github.com/ardanlabs/utxochain/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of ledger endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	WS    websocket.Upgrader
	Evts  *events.Events
}

// SubmitTransaction adds a new transaction to the pending pool and echoes
// the stored transaction back.
func (h Handlers) SubmitTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var newTx tx
	if err := web.Decode(r, &newTx); err != nil {
		return decodeError(err)
	}

	h.Log.Infow("submit tran", "traceid", web.GetTraceID(ctx), "id", newTx.ID, "receiver", newTx.Receiver, "amount", newTx.Amount)

	stored, err := h.State.SubmitTransaction(newTx.toDatabase())
	if err != nil {
		return errs.Ledger(err)
	}

	metrics.AddTransaction()

	return web.Respond(ctx, w, stored, http.StatusOK)
}

// VerifyTransaction checks the transaction inputs are spendable and the
// signature is valid. Nothing is changed.
func (h Handlers) VerifyTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var newTx tx
	if err := web.Decode(r, &newTx); err != nil {
		return decodeError(err)
	}

	if err := h.State.VerifyTransaction(newTx.toDatabase()); err != nil {
		return errs.Ledger(err)
	}

	return web.Respond(ctx, w, status{Status: "transaction is valid"}, http.StatusOK)
}

// Mempool returns the set of uncommitted transactions.
func (h Handlers) Mempool(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.RetrieveMempool(), http.StatusOK)
}

// MineBlock mines the pending transactions into a new block.
func (h Handlers) MineBlock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	block, err := h.State.MineNewBlock(ctx)
	if err != nil {
		return errs.Ledger(err)
	}

	metrics.AddBlock("mined")

	return web.Respond(ctx, w, block, http.StatusOK)
}

// AddBlock validates a block produced elsewhere and adds it to the chain.
func (h Handlers) AddBlock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var nb block
	if err := web.Decode(r, &nb); err != nil {
		return decodeError(err)
	}

	h.Log.Infow("add block", "traceid", web.GetTraceID(ctx), "index", nb.Index, "hash", nb.Hash)

	accepted, err := h.State.ProcessProposedBlock(nb.toDatabase())
	if err != nil {
		return errs.Ledger(err)
	}

	metrics.AddBlock("proposed")

	return web.Respond(ctx, w, accepted, http.StatusOK)
}

// Chain returns every block in the chain along with the length.
func (h Handlers) Chain(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	blocks, err := h.State.RetrieveChain()
	if err != nil {
		return err
	}

	return web.Respond(ctx, w, chain{Length: len(blocks), Chain: blocks}, http.StatusOK)
}

// BlocksByNumber returns the blocks in the specified range. Either end can
// be "latest".
func (h Handlers) BlocksByNumber(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	from, err := blockNumber(web.Param(r, "from"))
	if err != nil {
		return errs.NewTrusted(errors.New("from parameter is not a number"), http.StatusBadRequest)
	}

	to, err := blockNumber(web.Param(r, "to"))
	if err != nil {
		return errs.NewTrusted(errors.New("to parameter is not a number"), http.StatusBadRequest)
	}

	if from != state.QueryLastest && to != state.QueryLastest && from > to {
		return errs.NewTrusted(errors.New("from is greater than to"), http.StatusBadRequest)
	}

	blocks := h.State.QueryBlocksByNumber(from, to)
	if len(blocks) == 0 {
		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}

	return web.Respond(ctx, w, blocks, http.StatusOK)
}

// UTXOs returns the utxo pool, or a single utxo when an id is provided.
func (h Handlers) UTXOs(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	id := web.Param(r, "id")
	if id == "" {
		return web.Respond(ctx, w, h.State.RetrieveUTXOPool(), http.StatusOK)
	}

	utxo, exists := h.State.QueryUTXO(id)
	if !exists {
		return errs.NewTrusted(errors.New("utxo not found"), http.StatusNotFound)
	}

	return web.Respond(ctx, w, utxo, http.StatusOK)
}

// Genesis returns the genesis information.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.RetrieveGenesis(), http.StatusOK)
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return nil
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}

		case <-ctx.Done():
			return nil
		}
	}
}

// =============================================================================

// decodeError makes a malformed request body a client error. Validation
// failures are returned as is so the fields are reported.
func decodeError(err error) error {
	if validate.IsFieldErrors(err) {
		return err
	}
	return errs.NewTrusted(err, http.StatusBadRequest)
}

// blockNumber converts a path parameter into a block number.
func blockNumber(s string) (uint64, error) {
	if s == "latest" || s == "" {
		return state.QueryLastest, nil
	}

	return strconv.ParseUint(s, 10, 64)
}
