package claim

import (
	"context"
	"errors"
	"fmt"

	"github.com/erazemk/nalepka/internal/model"
	"github.com/erazemk/nalepka/internal/qr"
	"github.com/erazemk/nalepka/internal/store"
)

// State is a scan session's position in the association flow.
type State string

const (
	StateIdle          State = "idle"
	StateChecking      State = "checking"
	StateLinked        State = "linked"   // terminal: code already on own item
	StateUnlinked      State = "unlinked" // awaiting item choice
	StateCreatingItem  State = "creating_item"
	StateSelectingItem State = "selecting_item"
	StateClaiming      State = "claiming"
	StateDone          State = "done"   // terminal: claim succeeded
	StateFailed        State = "failed" // terminal: error recorded
)

// terminal reports whether no further transitions are possible.
func (s State) terminal() bool {
	return s == StateLinked || s == StateDone || s == StateFailed
}

// ItemCreator is the external collaborator that creates items during the
// flow's create-new-item branch.
type ItemCreator interface {
	CreateItem(ctx context.Context, userID int64, name, description string) (*model.Item, error)
}

// Session drives one scan through the association flow:
//
//	Idle → Checking → {Linked, Unlinked, Failed}
//	Unlinked → {CreatingItem, SelectingItem} → Claiming → {Done, Failed}
//
// A session makes no remote mutation before Claiming, so abandonment at any
// earlier state needs no compensation. A claim lost to a concurrent scanner
// re-runs Checking instead of failing outright: two devices scanning the
// same sticker is an ordinary event, not an edge case.
type Session struct {
	svc    *Service
	items  ItemCreator
	userID int64

	state      State
	key        string
	resolution *Resolution
	itemID     int64
	err        error
}

// NewSession starts an idle scan session for a user.
func NewSession(svc *Service, items ItemCreator, userID int64) *Session {
	return &Session{svc: svc, items: items, userID: userID, state: StateIdle}
}

// State returns the session's current state.
func (s *Session) State() State { return s.state }

// Resolution returns the last resolution, if Checking has run.
func (s *Session) Resolution() *Resolution { return s.resolution }

// ItemID returns the item the session linked or claimed, valid in
// StateLinked and StateDone.
func (s *Session) ItemID() int64 { return s.itemID }

// Err returns the error that moved the session to StateFailed.
func (s *Session) Err() error { return s.err }

// Scan feeds a scanned or typed code into an idle session and resolves it.
func (s *Session) Scan(ctx context.Context, raw string) (State, error) {
	if s.state != StateIdle {
		return s.state, fmt.Errorf("scan in state %q", s.state)
	}

	s.state = StateChecking
	key := qr.Normalize(raw)
	if key == "" {
		return s.fail(ErrInvalidCode)
	}
	s.key = key

	return s.check(ctx)
}

// check resolves the stored key and transitions out of Checking.
func (s *Session) check(ctx context.Context) (State, error) {
	res, err := s.svc.Resolve(ctx, s.key, s.userID)
	if err != nil {
		return s.fail(err)
	}
	s.resolution = res

	switch res.Status {
	case StatusClaimedBySelf:
		// Already linked; caller navigates straight to the item.
		if res.Item != nil {
			s.itemID = res.Item.ID
		}
		s.state = StateLinked
		return s.state, nil
	case StatusClaimedByOther:
		// Terminal and not retryable: the code belongs to someone else.
		return s.fail(store.ErrAlreadyClaimed)
	default:
		s.state = StateUnlinked
		return s.state, nil
	}
}

// CreateItem takes the create-new-item branch: the collaborator creates the
// item, then the session claims the code onto it.
func (s *Session) CreateItem(ctx context.Context, name, description string) (State, error) {
	if s.state != StateUnlinked {
		return s.state, fmt.Errorf("create item in state %q", s.state)
	}

	s.state = StateCreatingItem
	item, err := s.items.CreateItem(ctx, s.userID, name, description)
	if err != nil {
		return s.fail(err)
	}

	return s.claim(ctx, item.ID)
}

// SelectItem takes the pick-existing-item branch and claims the code onto
// the chosen item. Ownership is verified by the claim itself.
func (s *Session) SelectItem(ctx context.Context, itemID int64) (State, error) {
	if s.state != StateUnlinked {
		return s.state, fmt.Errorf("select item in state %q", s.state)
	}

	s.state = StateSelectingItem
	return s.claim(ctx, itemID)
}

// claim performs the Claiming step.
func (s *Session) claim(ctx context.Context, itemID int64) (State, error) {
	s.state = StateClaiming
	err := s.svc.Claim(ctx, s.key, itemID, s.userID)
	if err == nil {
		s.itemID = itemID
		s.state = StateDone
		return s.state, nil
	}

	if errors.Is(err, store.ErrAlreadyClaimed) {
		// Lost the scan-to-claim race. Re-run Checking: the code may now
		// be on one of our own items (double scan from two devices), or
		// genuinely taken by someone else.
		s.state = StateChecking
		return s.check(ctx)
	}

	return s.fail(err)
}

// Cancel abandons the session. Allowed at any non-terminal state; nothing
// needs compensating because nothing was mutated before Claiming.
func (s *Session) Cancel() {
	if !s.state.terminal() {
		s.state = StateIdle
		s.resolution = nil
		s.key = ""
	}
}

// fail records an error and moves to the terminal failed state.
func (s *Session) fail(err error) (State, error) {
	s.err = err
	s.state = StateFailed
	return s.state, err
}
