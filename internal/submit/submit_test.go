package submit

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"gmfeed/internal/model"
)

type fakeHandle struct {
	hash    string
	waitErr error
}

func (h fakeHandle) Hash() string { return h.hash }
func (h fakeHandle) Wait(ctx context.Context) error { return h.waitErr }

type fakeWallet struct {
	account  string
	chainErr error
	sendErr  error
	waitErr  error
	sent     []string
}

func (w *fakeWallet) Account() string { return w.account }

func (w *fakeWallet) EnsureTargetChain(ctx context.Context) error { return w.chainErr }

func (w *fakeWallet) SendGreeting(ctx context.Context, message string) (Handle, error) {
	w.sent = append(w.sent, message)
	if w.sendErr != nil {
		return nil, w.sendErr
	}
	return fakeHandle{hash: "0xabc", waitErr: w.waitErr}, nil
}

type rpcError struct {
	code int
	msg  string
	data interface{}
}

func (e rpcError) Error() string { return e.msg }
func (e rpcError) ErrorCode() int { return e.code }
func (e rpcError) ErrorData() interface{} { return e.data }

func TestMachineHappyPath(t *testing.T) {
	var m Machine
	steps := []func() error{
		m.Begin,
		func() error { return m.Dispatched("0xabc") },
		m.Confirm,
		m.Revert,
	}
	want := []model.SubmissionState{
		{Stage: model.StageSending},
		{Stage: model.StagePending, TxHash: "0xabc"},
		{Stage: model.StageConfirmed, TxHash: "0xabc"},
		{Stage: model.StageIdle},
	}
	for i, step := range steps {
		if err := step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if !reflect.DeepEqual(m.State(), want[i]) {
			t.Fatalf("step %d state mismatch: %+v", i, m.State())
		}
	}
	if m.Attempt() != 1 {
		t.Fatalf("attempt mismatch: %d", m.Attempt())
	}
}

func TestMachineFailureAndInvalidTransitions(t *testing.T) {
	var m Machine
	if err := m.Confirm(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("confirm from idle should fail, got %v", err)
	}
	if err := m.Revert(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("revert from idle should fail, got %v", err)
	}

	if err := m.Begin(); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := m.Begin(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("double begin should fail, got %v", err)
	}
	if err := m.Fail("insufficient funds"); err != nil {
		t.Fatalf("fail: %v", err)
	}
	if m.State().Stage != model.StageFailed || m.State().Reason != "insufficient funds" {
		t.Fatalf("state mismatch: %+v", m.State())
	}
	if err := m.Revert(); err != nil {
		t.Fatalf("revert: %v", err)
	}
	if err := m.Begin(); err != nil || m.Attempt() != 2 {
		t.Fatalf("second attempt: %v %d", err, m.Attempt())
	}
}

func TestCheck(t *testing.T) {
	now := time.Unix(1_800_000_000, 0)
	wallet := &fakeWallet{account: "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"}
	idle := model.SubmissionState{}

	if err := Check(nil, idle, false, model.UserStats{}, now); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("nil wallet: %v", err)
	}
	if err := Check(&fakeWallet{}, idle, false, model.UserStats{}, now); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("no account: %v", err)
	}
	if err := Check(wallet, idle, false, model.UserStats{}, now); err != nil {
		t.Fatalf("fresh account should pass: %v", err)
	}

	old := uint64(now.Unix() - 90000)
	if err := Check(wallet, idle, false, model.UserStats{Count: 1, LastTimestamp: &old}, now); err != nil {
		t.Fatalf("expired cooldown should pass: %v", err)
	}

	recent := uint64(now.Unix() - 10)
	if err := Check(wallet, idle, false, model.UserStats{Count: 1, LastTimestamp: &recent}, now); !errors.Is(err, ErrCoolingDown) {
		t.Fatalf("active cooldown: %v", err)
	}

	if err := Check(wallet, model.SubmissionState{Stage: model.StagePending}, false, model.UserStats{}, now); !errors.Is(err, ErrBusy) {
		t.Fatalf("pending: %v", err)
	}
	if err := Check(wallet, idle, true, model.UserStats{}, now); !errors.Is(err, ErrBusy) {
		t.Fatalf("negotiating: %v", err)
	}
}

func runDispatch(w Wallet) []Update {
	var updates []Update
	Dispatch(context.Background(), w, "", func(u Update) { updates = append(updates, u) })
	return updates
}

func kinds(updates []Update) []UpdateKind {
	out := make([]UpdateKind, 0, len(updates))
	for _, u := range updates {
		out = append(out, u.Kind)
	}
	return out
}

func TestDispatchSuccess(t *testing.T) {
	wallet := &fakeWallet{account: "0x01"}
	updates := runDispatch(wallet)

	want := []UpdateKind{UpdateChainReady, UpdateDispatched, UpdateConfirmed}
	if !reflect.DeepEqual(kinds(updates), want) {
		t.Fatalf("updates mismatch: %v", kinds(updates))
	}
	if updates[1].TxHash != "0xabc" || updates[2].TxHash != "0xabc" {
		t.Fatalf("tx hash mismatch: %+v", updates)
	}
	if !reflect.DeepEqual(wallet.sent, []string{""}) {
		t.Fatalf("expected one empty greeting, got %q", wallet.sent)
	}
}

func TestDispatchChainRejected(t *testing.T) {
	wallet := &fakeWallet{account: "0x01", chainErr: model.ErrUserRejected}
	updates := runDispatch(wallet)

	if !reflect.DeepEqual(kinds(updates), []UpdateKind{UpdateChainRejected}) {
		t.Fatalf("updates mismatch: %v", kinds(updates))
	}
	if len(wallet.sent) != 0 {
		t.Fatalf("nothing should be sent after a rejected negotiation")
	}
}

func TestDispatchFailures(t *testing.T) {
	wallet := &fakeWallet{account: "0x01", sendErr: errors.New("insufficient funds for gas")}
	updates := runDispatch(wallet)
	if !reflect.DeepEqual(kinds(updates), []UpdateKind{UpdateChainReady, UpdateFailed}) {
		t.Fatalf("updates mismatch: %v", kinds(updates))
	}
	if !errors.Is(updates[1].Err, model.ErrTransactionFailed) {
		t.Fatalf("send failure should be a transaction failure: %v", updates[1].Err)
	}

	wallet = &fakeWallet{account: "0x01", sendErr: model.ErrUserRejected}
	updates = runDispatch(wallet)
	if !errors.Is(updates[1].Err, model.ErrUserRejected) || errors.Is(updates[1].Err, model.ErrTransactionFailed) {
		t.Fatalf("user rejection should keep its class: %v", updates[1].Err)
	}

	wallet = &fakeWallet{account: "0x01", waitErr: errors.New("reverted")}
	updates = runDispatch(wallet)
	want := []UpdateKind{UpdateChainReady, UpdateDispatched, UpdateFailed}
	if !reflect.DeepEqual(kinds(updates), want) {
		t.Fatalf("updates mismatch: %v", kinds(updates))
	}
	if updates[2].TxHash != "0xabc" || !errors.Is(updates[2].Err, model.ErrTransactionFailed) {
		t.Fatalf("wait failure mismatch: %+v", updates[2])
	}
}

func TestReason(t *testing.T) {
	if Reason(nil) != "" {
		t.Fatalf("nil error should have no reason")
	}
	if got := Reason(errors.New("boom")); got != "boom" {
		t.Fatalf("plain reason mismatch: %q", got)
	}

	wrapped := classify("send greeting", rpcError{code: -32000, msg: "insufficient funds for gas * price + value"})
	if got := Reason(wrapped); got != "insufficient funds for gas * price + value" {
		t.Fatalf("rpc reason mismatch: %q", got)
	}

	stringType, err := abi.NewType("string", "", nil)
	if err != nil {
		t.Fatalf("new type: %v", err)
	}
	packed, err := abi.Arguments{{Type: stringType}}.Pack("cooldown active")
	if err != nil {
		t.Fatalf("pack revert: %v", err)
	}
	data := hexutil.Encode(append([]byte{0x08, 0xc3, 0x79, 0xa0}, packed...))
	reverted := rpcError{code: 3, msg: "execution reverted", data: data}
	if got := Reason(reverted); got != "execution reverted: cooldown active" {
		t.Fatalf("revert reason mismatch: %q", got)
	}
}
