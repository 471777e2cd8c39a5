package leapmotion

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"leapmotion/internal/leap"
	"leapmotion/internal/leap/leaptest"
)

type recorded struct {
	kind    Kind
	frameID int64
	gesture int64
	hasCtl  bool
}

func newTestAdapter(t *testing.T) (*Adapter, *leaptest.Controller) {
	t.Helper()
	rt := &leaptest.Runtime{}
	a, err := New(context.Background(), rt)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a, rt.Last()
}

func record(a *Adapter) *[]recorded {
	var out []recorded
	a.SubscribeAll(func(e Event) {
		r := recorded{kind: e.Kind, hasCtl: e.Controller != nil}
		if e.HasFrame() {
			r.frameID = e.Frame.ID
		}
		if e.HasGesture() {
			r.gesture = e.Gesture.ID
		}
		out = append(out, r)
	})
	return &out
}

func TestNewRegistersSoleListener(t *testing.T) {
	a, ctl := newTestAdapter(t)
	if ctl.Listeners() != 1 {
		t.Fatalf("expected 1 listener, got %d", ctl.Listeners())
	}
	if a.Controller() != leap.Controller(ctl) {
		t.Fatalf("controller accessor returned a different session")
	}
}

func TestNewMapsOpenFailure(t *testing.T) {
	native := errors.New("service not running")
	_, err := New(context.Background(), &leaptest.Runtime{OpenErr: native})
	if !errors.Is(err, ErrDeviceUnavailable) {
		t.Fatalf("expected ErrDeviceUnavailable, got %v", err)
	}
	if !errors.Is(err, native) {
		t.Fatalf("expected native error to be wrapped, got %v", err)
	}
}

func TestEnableAllGesturesInDeclarationOrder(t *testing.T) {
	a, ctl := newTestAdapter(t)
	a.EnableAllGestures()

	got := ctl.EnableCalls()
	if !reflect.DeepEqual(got, leap.GestureTypes()) {
		t.Fatalf("enable calls = %v, want %v", got, leap.GestureTypes())
	}
}

func TestEnableGestureDelegates(t *testing.T) {
	a, ctl := newTestAdapter(t)
	a.EnableGesture(leap.GestureCircle)

	got := ctl.EnableCalls()
	if len(got) != 1 || got[0] != leap.GestureCircle {
		t.Fatalf("enable calls = %v", got)
	}
}

func TestLifecycleCallbacksMapToNotifications(t *testing.T) {
	tests := []struct {
		name string
		fire func(*leaptest.Controller)
		want Kind
	}{
		{"init", (*leaptest.Controller).Init, Initialized},
		{"exit", (*leaptest.Controller).Exit, Exited},
		{"connect", (*leaptest.Controller).Connect, Connected},
		{"disconnect", (*leaptest.Controller).Disconnect, Disconnected},
		{"focus gained", (*leaptest.Controller).FocusGained, GotFocus},
		{"focus lost", (*leaptest.Controller).FocusLost, LostFocus},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, ctl := newTestAdapter(t)
			got := record(a)

			tt.fire(ctl)

			if len(*got) != 1 {
				t.Fatalf("expected 1 notification, got %d", len(*got))
			}
			r := (*got)[0]
			if r.kind != tt.want {
				t.Fatalf("kind = %v, want %v", r.kind, tt.want)
			}
			if !r.hasCtl || r.frameID != 0 || r.gesture != 0 {
				t.Fatalf("unexpected payload %+v", r)
			}
		})
	}
}

func TestFrameUnavailableIsSilent(t *testing.T) {
	a, ctl := newTestAdapter(t)
	got := record(a)

	ctl.EmitFrame(nil)

	if len(*got) != 0 {
		t.Fatalf("expected no notifications, got %v", *got)
	}
}

func TestFrameWithGestures(t *testing.T) {
	for _, n := range []int{0, 1, 3} {
		a, ctl := newTestAdapter(t)
		got := record(a)

		gestures := make([]leap.Gesture, 0, n)
		for i := 0; i < n; i++ {
			gestures = append(gestures, leap.Gesture{ID: int64(100 + i), Type: leap.GestureSwipe})
		}
		ctl.EmitFrame(leaptest.Frame(7, 2, gestures...))

		if len(*got) != n+1 {
			t.Fatalf("n=%d: expected %d notifications, got %d", n, n+1, len(*got))
		}
		for i := 0; i < n; i++ {
			r := (*got)[i]
			if r.kind != GestureRecognized || r.gesture != int64(100+i) || r.frameID != 7 {
				t.Fatalf("n=%d: notification %d = %+v", n, i, r)
			}
		}
		last := (*got)[n]
		if last.kind != FrameReady || last.frameID != 7 || last.gesture != 0 {
			t.Fatalf("n=%d: last notification = %+v", n, last)
		}
	}
}

func TestFrameIsReleasedAfterCallback(t *testing.T) {
	a, ctl := newTestAdapter(t)

	var kept *leap.Frame
	var fingers int
	a.OnFrameReady(func(e Event) {
		kept = e.Frame
		fingers = len(e.Frame.Fingers())
	})
	ctl.EmitFrame(leaptest.Frame(1, 4))

	if fingers != 4 {
		t.Fatalf("expected 4 fingers during dispatch, got %d", fingers)
	}
	if kept.Valid() {
		t.Fatalf("expected frame to be released after the callback")
	}
	if len(kept.Fingers()) != 0 {
		t.Fatalf("released frame should not expose data")
	}
}

func TestSubscribersRunInRegistrationOrder(t *testing.T) {
	a, ctl := newTestAdapter(t)

	var order []int
	for i := 0; i < 5; i++ {
		i := i
		a.OnConnected(func(Event) { order = append(order, i) })
	}
	ctl.Connect()

	if !reflect.DeepEqual(order, []int{0, 1, 2, 3, 4}) {
		t.Fatalf("order = %v", order)
	}
}

func TestUnsubscribe(t *testing.T) {
	a, ctl := newTestAdapter(t)

	calls := 0
	sub := a.OnGotFocus(func(Event) { calls++ })
	if !a.Unsubscribe(sub) {
		t.Fatalf("expected subscription to be removed")
	}
	if a.Unsubscribe(sub) {
		t.Fatalf("second unsubscribe should report false")
	}
	ctl.FocusGained()
	if calls != 0 {
		t.Fatalf("removed handler was called %d times", calls)
	}
}

func TestSubscribeDuringDispatchTakesEffectNextTime(t *testing.T) {
	a, ctl := newTestAdapter(t)

	late := 0
	a.OnConnected(func(Event) {
		a.OnConnected(func(Event) { late++ })
	})
	ctl.Connect()
	if late != 0 {
		t.Fatalf("handler added during dispatch ran immediately")
	}
	ctl.Connect()
	if late != 1 {
		t.Fatalf("expected late handler once, got %d", late)
	}
}

func TestStateIsPassThrough(t *testing.T) {
	a, ctl := newTestAdapter(t)

	if a.IsConnected() || a.HasFocus() {
		t.Fatalf("fresh adapter should be disconnected and unfocused")
	}
	ctl.SetConnected(true)
	ctl.SetFocus(true)
	if !a.IsConnected() || !a.HasFocus() {
		t.Fatalf("adapter did not reflect live state")
	}
	ctl.SetConnected(false)
	if a.IsConnected() {
		t.Fatalf("adapter returned a stale connection state")
	}
}

func TestExitCarriesSessionError(t *testing.T) {
	a, ctl := newTestAdapter(t)

	var got error
	a.OnExited(func(e Event) { got = e.Err })
	lost := errors.New("socket closed")
	ctl.SetErr(lost)
	ctl.Exit()

	if !errors.Is(got, lost) {
		t.Fatalf("expected session error on Exited, got %v", got)
	}
}

func TestCloseUnregistersAndStopsDispatch(t *testing.T) {
	a, ctl := newTestAdapter(t)
	got := record(a)

	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if ctl.Listeners() != 0 || !ctl.Closed() {
		t.Fatalf("expected listener removed and controller closed")
	}

	// a listener reference held by the runtime must stay silent
	a.OnDisconnect(ctl)
	a.OnFrame(ctl)
	if len(*got) != 0 {
		t.Fatalf("expected no notifications after Close, got %v", *got)
	}

	if err := a.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if ctl.Removed() != 1 {
		t.Fatalf("second Close touched the controller again")
	}
}

func TestEndToEnd(t *testing.T) {
	a, ctl := newTestAdapter(t)
	a.EnableAllGestures()

	var connected []Event
	a.OnConnected(func(e Event) { connected = append(connected, e) })
	got := record(a)

	ctl.Connect()
	if len(connected) != 1 {
		t.Fatalf("expected one Connected, got %d", len(connected))
	}
	if connected[0].Controller == nil || connected[0].HasFrame() || connected[0].HasGesture() {
		t.Fatalf("unexpected Connected payload %+v", connected[0])
	}

	ctl.EmitFrame(leaptest.Frame(42, 5,
		leap.Gesture{ID: 1, Type: leap.GestureCircle},
		leap.Gesture{ID: 2, Type: leap.GestureKeyTap},
	))

	kinds := make([]Kind, 0, len(*got))
	for _, r := range *got {
		kinds = append(kinds, r.kind)
	}
	want := []Kind{Connected, GestureRecognized, GestureRecognized, FrameReady}
	if !reflect.DeepEqual(kinds, want) {
		t.Fatalf("kinds = %v, want %v", kinds, want)
	}

	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	before := len(*got)
	a.OnDisconnect(ctl)
	if len(*got) != before {
		t.Fatalf("notification dispatched after Close")
	}
}

func TestWithSubscriptionSeesEarlyCallbacks(t *testing.T) {
	rt := &leaptest.Runtime{}
	inits := 0
	a, err := New(context.Background(), rt, WithSubscription(Initialized, func(Event) { inits++ }))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	rt.Last().Init()
	if inits != 1 {
		t.Fatalf("expected one Initialized, got %d", inits)
	}
}
