package state_test

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ardanlabs/utxochain/foundation/blockchain/database"
	"github.com/ardanlabs/utxochain/foundation/blockchain/genesis"
	"github.com/ardanlabs/utxochain/foundation/blockchain/state"
	"github.com/ardanlabs/utxochain/foundation/blockchain/storage/memory"
	"github.com/ethereum/go-ethereum/crypto"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

const pkHexKey = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"

func newState(t *testing.T, difficulty uint16, verify bool) (*state.State, *memory.Memory, genesis.Genesis) {
	t.Helper()

	gen, err := genesis.New(difficulty)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct the genesis: %v", failed, err)
	}

	strg, err := memory.New()
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct the storage: %v", failed, err)
	}

	st, err := state.New(state.Config{
		Genesis:           gen,
		Storage:           strg,
		VerifySubmissions: verify,
		EvHandler:         func(v string, args ...any) {},
	})
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct the state: %v", failed, err)
	}

	return st, strg, gen
}

func submit(t *testing.T, st *state.State, tx database.Tx) database.Tx {
	t.Helper()

	tx, err := st.SubmitTransaction(tx)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to submit transaction: %v", failed, err)
	}

	return tx
}

func mine(t *testing.T, st *state.State) database.Block {
	t.Helper()

	block, err := st.MineNewBlock(context.Background())
	if err != nil {
		t.Fatalf("\t%s\tShould be able to mine a block: %v", failed, err)
	}

	return block
}

func chainLength(t *testing.T, st *state.State) int {
	t.Helper()

	chain, err := st.RetrieveChain()
	if err != nil {
		t.Fatalf("\t%s\tShould be able to retrieve the chain: %v", failed, err)
	}

	return len(chain)
}

// =============================================================================

func Test_Genesis(t *testing.T) {
	t.Log("Given the need to start a new ledger.")
	{
		st, _, _ := newState(t, 1, false)

		chain, err := st.RetrieveChain()
		if err != nil || len(chain) != 1 {
			t.Fatalf("\t%s\tShould have a chain with only the genesis block: %v", failed, err)
		}
		t.Logf("\t%s\tShould have a chain with only the genesis block.", success)

		gb := chain[0]
		if gb.Index != 0 || gb.PrevHash != "0" || len(gb.Transactions) != 0 {
			t.Fatalf("\t%s\tShould have a well formed genesis block: %s", failed, gb)
		}
		t.Logf("\t%s\tShould have a well formed genesis block.", success)

		if gb.Hash != gb.ComputeHash() {
			t.Fatalf("\t%s\tShould have a genesis hash matching its contents.", failed)
		}
		t.Logf("\t%s\tShould have a genesis hash matching its contents.", success)

		if len(st.RetrieveUTXOPool()) != 0 || len(st.RetrieveMempool()) != 0 {
			t.Fatalf("\t%s\tShould start with no utxos and no pending transactions.", failed)
		}
		t.Logf("\t%s\tShould start with no utxos and no pending transactions.", success)
	}
}

func Test_EmptyPendingQueue(t *testing.T) {
	t.Log("Given the need to mine with nothing pending.")
	{
		st, _, _ := newState(t, 1, false)

		_, err := st.MineNewBlock(context.Background())
		if !errors.Is(err, state.ErrEmptyPendingQueue) {
			t.Fatalf("\t%s\tShould get an empty pending queue error: %v", failed, err)
		}
		t.Logf("\t%s\tShould get an empty pending queue error.", success)

		if chainLength(t, st) != 1 {
			t.Fatalf("\t%s\tShould not change the chain.", failed)
		}
		t.Logf("\t%s\tShould not change the chain.", success)
	}
}

func Test_MineBlock(t *testing.T) {
	t.Log("Given the need to mine a pending transaction.")
	{
		st, _, _ := newState(t, 1, false)
		genesisBlock := st.RetrieveLatestBlock()

		submit(t, st, database.Tx{
			ID:          "tx1",
			Sender:      "A",
			Receiver:    "B",
			Amount:      10,
			InputUTXOs:  []string{},
			OutputUTXOs: []string{"u1"},
		})

		block := mine(t, st)

		if !strings.HasPrefix(block.Hash, "0") {
			t.Fatalf("\t%s\tShould have a hash with a leading zero: %s", failed, block.Hash)
		}
		t.Logf("\t%s\tShould have a hash with a leading zero.", success)

		if block.Hash != block.ComputeHash() || block.ComputeHash() != block.ComputeHash() {
			t.Fatalf("\t%s\tShould have a stable hash matching its contents.", failed)
		}
		t.Logf("\t%s\tShould have a stable hash matching its contents.", success)

		if block.Index != 1 || block.PrevHash != genesisBlock.Hash {
			t.Fatalf("\t%s\tShould link to the genesis block: idx[%d] prev[%s]", failed, block.Index, block.PrevHash)
		}
		t.Logf("\t%s\tShould link to the genesis block.", success)

		utxo, exists := st.QueryUTXO("u1")
		if !exists || utxo.IsSpent || utxo.Amount != 10 || utxo.TransactionID != "tx1" {
			t.Fatalf("\t%s\tShould have an unspent u1 of 10: %+v", failed, utxo)
		}
		t.Logf("\t%s\tShould have an unspent u1 of 10.", success)

		if st.QueryMempoolLength() != 0 {
			t.Fatalf("\t%s\tShould have removed the mined transaction from the pool.", failed)
		}
		t.Logf("\t%s\tShould have removed the mined transaction from the pool.", success)

		chain, err := st.RetrieveChain()
		if err != nil {
			t.Fatalf("\t%s\tShould be able to retrieve the chain: %v", failed, err)
		}
		for i := 1; i < len(chain); i++ {
			if chain[i].PrevHash != chain[i-1].Hash {
				t.Fatalf("\t%s\tShould have every block linked to its parent: blk[%d]", failed, i)
			}
		}
		t.Logf("\t%s\tShould have every block linked to its parent.", success)
	}
}

func Test_PreviousHashMismatch(t *testing.T) {
	t.Log("Given the need to reject a block that doesn't extend the tip.")
	{
		st, _, gen := newState(t, 1, false)

		prev := st.RetrieveLatestBlock()
		prev.Hash = strings.Repeat("f", 64)

		block, err := database.POW(context.Background(), database.POWArgs{
			Difficulty: gen.Difficulty,
			PrevBlock:  prev,
			Trans:      []database.Tx{{ID: "tx1", Sender: "A", Receiver: "B", Amount: 10, OutputUTXOs: []string{"u1"}}},
		})
		if err != nil {
			t.Fatalf("\t%s\tShould be able to mine the block: %v", failed, err)
		}

		if _, err := st.ProcessProposedBlock(block); !errors.Is(err, database.ErrPreviousHashMismatch) {
			t.Fatalf("\t%s\tShould get a previous hash mismatch: %v", failed, err)
		}
		t.Logf("\t%s\tShould get a previous hash mismatch.", success)

		if chainLength(t, st) != 1 {
			t.Fatalf("\t%s\tShould not change the chain length.", failed)
		}
		t.Logf("\t%s\tShould not change the chain length.", success)
	}
}

func Test_TamperedBlock(t *testing.T) {
	t.Log("Given the need to reject a block changed after it was hashed.")
	{
		st, _, gen := newState(t, 1, false)

		block, err := database.POW(context.Background(), database.POWArgs{
			Difficulty: gen.Difficulty,
			PrevBlock:  st.RetrieveLatestBlock(),
			Trans:      []database.Tx{{ID: "tx1", Sender: "A", Receiver: "B", Amount: 10, OutputUTXOs: []string{"u1"}}},
		})
		if err != nil {
			t.Fatalf("\t%s\tShould be able to mine the block: %v", failed, err)
		}

		tampered := block.Clone()
		tampered.Transactions[0].Amount = 1000

		if _, err := st.ProcessProposedBlock(tampered); !errors.Is(err, database.ErrInvalidBlockHash) {
			t.Fatalf("\t%s\tShould detect the hash mismatch: %v", failed, err)
		}
		t.Logf("\t%s\tShould detect the hash mismatch.", success)

		if _, exists := st.QueryUTXO("u1"); exists || chainLength(t, st) != 1 {
			t.Fatalf("\t%s\tShould leave the ledger untouched.", failed)
		}
		t.Logf("\t%s\tShould leave the ledger untouched.", success)

		if _, err := st.ProcessProposedBlock(block); err != nil {
			t.Fatalf("\t%s\tShould accept the original block: %v", failed, err)
		}
		t.Logf("\t%s\tShould accept the original block.", success)

		if utxo, exists := st.QueryUTXO("u1"); !exists || utxo.Amount != 10 {
			t.Fatalf("\t%s\tShould apply the original block: %+v", failed, utxo)
		}
		t.Logf("\t%s\tShould apply the original block.", success)
	}
}

func Test_DoubleSpend(t *testing.T) {
	t.Log("Given the need to reject a block spending a spent utxo.")
	{
		st, _, gen := newState(t, 1, false)

		submit(t, st, database.Tx{ID: "tx1", Sender: "A", Receiver: "B", Amount: 10, OutputUTXOs: []string{"u1"}})
		mine(t, st)

		submit(t, st, database.Tx{ID: "tx2", Sender: "B", Receiver: "C", Amount: 10, InputUTXOs: []string{"u1"}, OutputUTXOs: []string{"u2"}})
		mine(t, st)

		if utxo, _ := st.QueryUTXO("u1"); !utxo.IsSpent {
			t.Fatalf("\t%s\tShould have marked u1 as spent.", failed)
		}
		t.Logf("\t%s\tShould have marked u1 as spent.", success)

		block, err := database.POW(context.Background(), database.POWArgs{
			Difficulty: gen.Difficulty,
			PrevBlock:  st.RetrieveLatestBlock(),
			Trans:      []database.Tx{{ID: "tx3", Sender: "B", Receiver: "D", Amount: 10, InputUTXOs: []string{"u1"}, OutputUTXOs: []string{"u3"}}},
		})
		if err != nil {
			t.Fatalf("\t%s\tShould be able to mine the block: %v", failed, err)
		}

		if _, err := st.ProcessProposedBlock(block); !errors.Is(err, database.ErrUnspentInputMissing) {
			t.Fatalf("\t%s\tShould reject the re-spend: %v", failed, err)
		}
		t.Logf("\t%s\tShould reject the re-spend.", success)

		if _, exists := st.QueryUTXO("u3"); exists || chainLength(t, st) != 3 {
			t.Fatalf("\t%s\tShould leave the ledger untouched.", failed)
		}
		t.Logf("\t%s\tShould leave the ledger untouched.", success)

		if utxo, _ := st.QueryUTXO("u1"); !utxo.IsSpent {
			t.Fatalf("\t%s\tShould keep u1 spent.", failed)
		}
		t.Logf("\t%s\tShould keep u1 spent.", success)
	}
}

func Test_MineEvictsInvalid(t *testing.T) {
	t.Log("Given the need to mine a pool holding transactions that can't apply.")
	{
		st, _, _ := newState(t, 1, false)

		submit(t, st, database.Tx{ID: "bad", Sender: "A", Receiver: "B", Amount: 5, InputUTXOs: []string{"missing"}, OutputUTXOs: []string{"x1"}})
		submit(t, st, database.Tx{ID: "good", Sender: "A", Receiver: "B", Amount: 10, OutputUTXOs: []string{"u1"}})
		submit(t, st, database.Tx{ID: "chained", Sender: "B", Receiver: "C", Amount: 10, InputUTXOs: []string{"u1"}, OutputUTXOs: []string{"u2"}})

		block := mine(t, st)

		if len(block.Transactions) != 2 || block.Transactions[0].ID != "good" || block.Transactions[1].ID != "chained" {
			t.Fatalf("\t%s\tShould record only the transactions that apply: %s", failed, block)
		}
		t.Logf("\t%s\tShould record only the transactions that apply.", success)

		if st.QueryMempoolLength() != 0 {
			t.Fatalf("\t%s\tShould have evicted the invalid transaction.", failed)
		}
		t.Logf("\t%s\tShould have evicted the invalid transaction.", success)

		submit(t, st, database.Tx{ID: "bad2", Sender: "A", Receiver: "B", Amount: 5, InputUTXOs: []string{"u1"}, OutputUTXOs: []string{"x2"}})

		if _, err := st.MineNewBlock(context.Background()); !errors.Is(err, state.ErrEmptyPendingQueue) {
			t.Fatalf("\t%s\tShould get an empty pending queue when nothing applies: %v", failed, err)
		}
		t.Logf("\t%s\tShould get an empty pending queue when nothing applies.", success)
	}
}

func Test_MiningCancelled(t *testing.T) {
	t.Log("Given the need to stop mining on request.")
	{
		st, _, _ := newState(t, 64, false)

		submit(t, st, database.Tx{ID: "tx1", Sender: "A", Receiver: "B", Amount: 10, OutputUTXOs: []string{"u1"}})

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		if _, err := st.MineNewBlock(ctx); !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("\t%s\tShould stop when the context expires: %v", failed, err)
		}
		t.Logf("\t%s\tShould stop when the context expires.", success)

		if st.QueryMempoolLength() != 1 || chainLength(t, st) != 1 {
			t.Fatalf("\t%s\tShould keep the transaction pending.", failed)
		}
		t.Logf("\t%s\tShould keep the transaction pending.", success)
	}
}

func Test_VerifyTransaction(t *testing.T) {
	t.Log("Given the need to verify transactions before submission.")
	{
		st, _, _ := newState(t, 1, true)

		pk, err := crypto.HexToECDSA(pkHexKey)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to load the private key: %v", failed, err)
		}

		err = st.VerifyTransaction(database.Tx{ID: "tx0", Receiver: "B", Amount: 10, InputUTXOs: []string{"nope"}})
		if !errors.Is(err, database.ErrUnspentInputMissing) {
			t.Fatalf("\t%s\tShould report a missing input: %v", failed, err)
		}
		t.Logf("\t%s\tShould report a missing input.", success)

		signed, err := database.Tx{ID: "tx1", Receiver: "B", Amount: 10, OutputUTXOs: []string{"u1"}}.Sign(pk)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to sign the transaction: %v", failed, err)
		}

		if err := st.VerifyTransaction(signed); err != nil {
			t.Fatalf("\t%s\tShould verify a signed transaction: %v", failed, err)
		}
		t.Logf("\t%s\tShould verify a signed transaction.", success)

		forged := signed
		forged.Amount = 1000
		if _, err := st.SubmitTransaction(forged); !errors.Is(err, database.ErrInvalidSignature) {
			t.Fatalf("\t%s\tShould reject a forged submission: %v", failed, err)
		}
		t.Logf("\t%s\tShould reject a forged submission.", success)

		submit(t, st, signed)
		if st.QueryMempoolLength() != 1 {
			t.Fatalf("\t%s\tShould only queue the verified transaction.", failed)
		}
		t.Logf("\t%s\tShould only queue the verified transaction.", success)
	}
}

func Test_SubmitAssignsID(t *testing.T) {
	t.Log("Given the need to submit a transaction without an id.")
	{
		st, _, _ := newState(t, 1, false)

		tx := submit(t, st, database.Tx{Sender: "A", Receiver: "B", Amount: 10, OutputUTXOs: []string{"u1"}})
		if tx.ID == "" {
			t.Fatalf("\t%s\tShould assign an id.", failed)
		}
		t.Logf("\t%s\tShould assign an id.", success)

		pool := st.RetrieveMempool()
		if len(pool) != 1 || pool[0].ID != tx.ID {
			t.Fatalf("\t%s\tShould queue the transaction under the assigned id.", failed)
		}
		t.Logf("\t%s\tShould queue the transaction under the assigned id.", success)
	}
}

func Test_Rebuild(t *testing.T) {
	t.Log("Given the need to rebuild the ledger from storage.")
	{
		st, strg, gen := newState(t, 1, false)

		submit(t, st, database.Tx{ID: "tx1", Sender: "A", Receiver: "B", Amount: 10, OutputUTXOs: []string{"u1", "u2"}})
		mine(t, st)
		submit(t, st, database.Tx{ID: "tx2", Sender: "B", Receiver: "C", Amount: 10, InputUTXOs: []string{"u1"}, OutputUTXOs: []string{"u3"}})
		mine(t, st)

		rebuilt, err := state.New(state.Config{
			Genesis: gen,
			Storage: strg,
		})
		if err != nil {
			t.Fatalf("\t%s\tShould be able to rebuild the state: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to rebuild the state.", success)

		if !reflect.DeepEqual(st.RetrieveUTXOPool(), rebuilt.RetrieveUTXOPool()) {
			t.Logf("\t%s\tgot: %v", failed, rebuilt.RetrieveUTXOPool())
			t.Logf("\t%s\texp: %v", failed, st.RetrieveUTXOPool())
			t.Fatalf("\t%s\tShould reproduce the same utxos.", failed)
		}
		t.Logf("\t%s\tShould reproduce the same utxos.", success)

		if rebuilt.RetrieveLatestBlock().Hash != st.RetrieveLatestBlock().Hash {
			t.Fatalf("\t%s\tShould reproduce the same tip.", failed)
		}
		t.Logf("\t%s\tShould reproduce the same tip.", success)
	}
}

func Test_QueryBlocksByNumber(t *testing.T) {
	t.Log("Given the need to query ranges of blocks.")
	{
		st, _, _ := newState(t, 1, false)

		submit(t, st, database.Tx{ID: "tx1", Sender: "A", Receiver: "B", Amount: 10, OutputUTXOs: []string{"u1"}})
		mine(t, st)

		if blocks := st.QueryBlocksByNumber(0, state.QueryLastest); len(blocks) != 2 {
			t.Fatalf("\t%s\tShould return the full range: got %d", failed, len(blocks))
		}
		t.Logf("\t%s\tShould return the full range.", success)

		blocks := st.QueryBlocksByNumber(state.QueryLastest, state.QueryLastest)
		if len(blocks) != 1 || blocks[0].Index != 1 {
			t.Fatalf("\t%s\tShould return the latest block.", failed)
		}
		t.Logf("\t%s\tShould return the latest block.", success)

		if blocks := st.QueryBlocksByNumber(0, 100); len(blocks) != 2 {
			t.Fatalf("\t%s\tShould clamp the range to the latest block: got %d", failed, len(blocks))
		}
		t.Logf("\t%s\tShould clamp the range to the latest block.", success)
	}
}

func Test_SubmitSignedNeedsID(t *testing.T) {
	t.Log("Given the need to submit signed transactions.")
	{
		pk, err := crypto.HexToECDSA(pkHexKey)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to load the private key: %v", failed, err)
		}

		noID, err := database.Tx{Receiver: "B", Amount: 10, OutputUTXOs: []string{"u1"}}.Sign(pk)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to sign the transaction: %v", failed, err)
		}

		for _, verify := range []bool{true, false} {
			st, _, _ := newState(t, 1, verify)

			if _, err := st.SubmitTransaction(noID); !errors.Is(err, database.ErrInvalidSignature) {
				t.Fatalf("\t%s\tShould reject a signed transaction without an id, verify[%t]: %v", failed, verify, err)
			}
			t.Logf("\t%s\tShould reject a signed transaction without an id, verify[%t].", success, verify)

			if st.QueryMempoolLength() != 0 {
				t.Fatalf("\t%s\tShould not queue the transaction, verify[%t].", failed, verify)
			}
			t.Logf("\t%s\tShould not queue the transaction, verify[%t].", success, verify)
		}

		st, _, _ := newState(t, 1, true)

		signed, err := database.Tx{ID: "tx1", Receiver: "B", Amount: 10, OutputUTXOs: []string{"u1"}}.Sign(pk)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to sign the transaction: %v", failed, err)
		}

		stored := submit(t, st, signed)
		if stored.ID != "tx1" {
			t.Fatalf("\t%s\tShould keep the signed id: %s", failed, stored.ID)
		}
		t.Logf("\t%s\tShould keep the signed id.", success)

		if err := st.VerifyTransaction(stored); err != nil {
			t.Fatalf("\t%s\tShould still verify the stored transaction: %v", failed, err)
		}
		t.Logf("\t%s\tShould still verify the stored transaction.", success)
	}
}

func Test_ProposedKeepsReplaced(t *testing.T) {
	t.Log("Given the need to keep a pending transaction replaced while a block records the old version.")
	{
		st, _, gen := newState(t, 1, false)

		old := submit(t, st, database.Tx{ID: "tx1", Sender: "A", Receiver: "B", Amount: 10, OutputUTXOs: []string{"u1"}})

		block, err := database.POW(context.Background(), database.POWArgs{
			Difficulty: gen.Difficulty,
			PrevBlock:  st.RetrieveLatestBlock(),
			Trans:      []database.Tx{old},
		})
		if err != nil {
			t.Fatalf("\t%s\tShould be able to mine the block: %v", failed, err)
		}

		submit(t, st, database.Tx{ID: "tx1", Sender: "A", Receiver: "C", Amount: 20, OutputUTXOs: []string{"u2"}})

		if _, err := st.ProcessProposedBlock(block); err != nil {
			t.Fatalf("\t%s\tShould accept the block: %v", failed, err)
		}
		t.Logf("\t%s\tShould accept the block.", success)

		pool := st.RetrieveMempool()
		if len(pool) != 1 || pool[0].Amount != 20 {
			t.Fatalf("\t%s\tShould keep the replaced transaction pending: %v", failed, pool)
		}
		t.Logf("\t%s\tShould keep the replaced transaction pending.", success)
	}
}

func Test_NoStorage(t *testing.T) {
	t.Log("Given the need to construct a state without storage.")
	{
		if _, err := state.New(state.Config{}); err == nil {
			t.Fatalf("\t%s\tShould get an error instead of a panic.", failed)
		}
		t.Logf("\t%s\tShould get an error instead of a panic.", success)
	}
}

func Test_Concurrent(t *testing.T) {
	t.Log("Given the need to submit, mine, accept and read blocks at the same time.")
	{
		st, _, gen := newState(t, 1, false)

		const g = 4
		const n = 25

		var wg sync.WaitGroup
		var proposed sync.Map

		for i := 0; i < g; i++ {
			i := i
			wg.Add(3)

			// Submit and mine.
			go func() {
				defer wg.Done()

				for j := 0; j < n; j++ {
					id := fmt.Sprintf("s%d-%d", i, j)
					if _, err := st.SubmitTransaction(database.Tx{ID: id, Sender: "A", Receiver: "B", Amount: 1, OutputUTXOs: []string{"o-" + id}}); err != nil {
						t.Errorf("\t%s\tShould be able to submit: %v", failed, err)
						return
					}

					_, err := st.MineNewBlock(context.Background())
					switch {
					case err == nil,
						errors.Is(err, state.ErrEmptyPendingQueue),
						errors.Is(err, context.Canceled),
						errors.Is(err, database.ErrPreviousHashMismatch):
					default:
						t.Errorf("\t%s\tShould only fail mining on a race: %v", failed, err)
						return
					}
				}
			}()

			// Propose blocks built elsewhere.
			go func() {
				defer wg.Done()

				for j := 0; j < n/5; j++ {
					id := fmt.Sprintf("p%d-%d", i, j)
					tx := database.Tx{ID: id, Sender: "A", Receiver: "B", Amount: 1, OutputUTXOs: []string{"o-" + id}}

					for attempt := 0; ; attempt++ {
						block, err := database.POW(context.Background(), database.POWArgs{
							Difficulty: gen.Difficulty,
							PrevBlock:  st.RetrieveLatestBlock(),
							Trans:      []database.Tx{tx},
						})
						if err != nil {
							t.Errorf("\t%s\tShould be able to mine a proposed block: %v", failed, err)
							return
						}

						_, err = st.ProcessProposedBlock(block)
						if err == nil {
							proposed.Store(id, true)
							break
						}
						if !errors.Is(err, database.ErrPreviousHashMismatch) || attempt == 1000 {
							t.Errorf("\t%s\tShould only fail a proposal on a stale tip: %v", failed, err)
							return
						}
					}
				}
			}()

			// Read while the chain grows.
			go func() {
				defer wg.Done()

				for r := 0; r < n; r++ {
					chain, err := st.RetrieveChain()
					if err != nil {
						t.Errorf("\t%s\tShould be able to read the chain: %v", failed, err)
						return
					}
					for k := 1; k < len(chain); k++ {
						if chain[k].PrevHash != chain[k-1].Hash {
							t.Errorf("\t%s\tShould read a linked chain: blk[%d]", failed, k)
							return
						}
					}
					st.RetrieveUTXOPool()
				}
			}()
		}

		wg.Wait()

		if t.Failed() {
			t.FailNow()
		}
		t.Logf("\t%s\tShould run every operation without an unexpected error.", success)

		// Anything left behind by a cancelled mine is recorded now.
		for st.QueryMempoolLength() > 0 {
			mine(t, st)
		}

		chain, err := st.RetrieveChain()
		if err != nil {
			t.Fatalf("\t%s\tShould be able to retrieve the chain: %v", failed, err)
		}

		seen := make(map[string]int)
		var outputs int
		for k, block := range chain {
			if k > 0 && block.PrevHash != chain[k-1].Hash {
				t.Fatalf("\t%s\tShould have every block linked to its parent: blk[%d]", failed, k)
			}
			for _, tx := range block.Transactions {
				seen[tx.ID]++
				outputs += len(tx.OutputUTXOs)
			}
		}
		t.Logf("\t%s\tShould have every block linked to its parent.", success)

		var proposedCount int
		proposed.Range(func(key, value any) bool {
			proposedCount++
			return true
		})

		exp := g*n + proposedCount
		if len(seen) != exp {
			t.Fatalf("\t%s\tShould record every transaction: got %d, exp %d", failed, len(seen), exp)
		}
		for id, count := range seen {
			if count != 1 {
				t.Fatalf("\t%s\tShould record tx[%s] once: got %d", failed, id, count)
			}
		}
		t.Logf("\t%s\tShould record every transaction exactly once.", success)

		if len(st.RetrieveUTXOPool()) != outputs {
			t.Fatalf("\t%s\tShould have a utxo for every output on the chain: got %d, exp %d", failed, len(st.RetrieveUTXOPool()), outputs)
		}
		t.Logf("\t%s\tShould have a utxo for every output on the chain.", success)
	}
}
