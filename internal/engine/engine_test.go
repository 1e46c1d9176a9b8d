package engine

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/muurk/ssdpd/internal/catalog"
	"github.com/muurk/ssdpd/internal/channel"
)

// =============================================================================
// Test participants
// =============================================================================

type mockHost struct {
	mock.Mock
	id string
}

func newMockHost(id string) *mockHost {
	return &mockHost{id: id}
}

func (m *mockHost) Start(l *channel.Listener) error { return m.Called(l).Error(0) }
func (m *mockHost) Stop(l *channel.Listener) error  { return m.Called(l).Error(0) }
func (m *mockHost) Identifier() string              { return m.id }

type bootHost struct {
	*mockHost
	boots atomic.Int32
}

func (b *bootHost) AdvanceBootID() { b.boots.Add(1) }

type mockClient struct {
	mock.Mock
}

func (m *mockClient) Start(l *channel.Listener) error { return m.Called(l).Error(0) }
func (m *mockClient) Stop(l *channel.Listener) error  { return m.Called(l).Error(0) }
func (m *mockClient) IgnoreIdentifier(id string)      { m.Called(id) }

type catalogClient struct {
	*mockClient
	devices []*catalog.Device
}

func (c *catalogClient) Catalog() []*catalog.Device { return c.devices }

// hostAndClient implements both participant kinds
type hostAndClient struct {
	*mockHost
}

func (h *hostAndClient) IgnoreIdentifier(string) {}

// startedHost expects exactly one Start and one Stop
func startedHost(id string) *mockHost {
	h := newMockHost(id)
	h.On("Start", mock.Anything).Return(nil)
	h.On("Stop", mock.Anything).Return(nil)
	return h
}

func startedClient() *mockClient {
	c := &mockClient{}
	c.On("Start", mock.Anything).Return(nil)
	c.On("Stop", mock.Anything).Return(nil)
	c.On("IgnoreIdentifier", mock.Anything).Return()
	return c
}

func listenerArg(t *testing.T, m *mock.Mock, method string, n int) *channel.Listener {
	t.Helper()
	var seen int
	for _, call := range m.Calls {
		if call.Method != method {
			continue
		}
		if seen == n {
			l, ok := call.Arguments.Get(0).(*channel.Listener)
			require.True(t, ok)
			return l
		}
		seen++
	}
	t.Fatalf("no call %d to %s", n, method)
	return nil
}

// =============================================================================
// Loopback channel
// =============================================================================

type trackingSocket struct {
	channel.Socket
	closed atomic.Bool
}

func (s *trackingSocket) Close() error {
	s.closed.Store(true)
	return s.Socket.Close()
}

type binder struct {
	mu      sync.Mutex
	sockets []*trackingSocket
	fail    error
}

func (b *binder) bind(int) (channel.Socket, error) {
	if b.fail != nil {
		return nil, b.fail
	}
	pc, err := net.ListenPacket("udp4", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}
	s := &trackingSocket{Socket: channel.WrapPacketConn(pc)}
	b.mu.Lock()
	b.sockets = append(b.sockets, s)
	b.mu.Unlock()
	return s, nil
}

func (b *binder) last() *trackingSocket {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.sockets) == 0 {
		return nil
	}
	return b.sockets[len(b.sockets)-1]
}

func newTestEngine(t *testing.T, opts ...Option) (*Engine, *binder) {
	t.Helper()
	b := &binder{}
	cfg := channel.Config{
		Interfaces: func([]string) ([]net.Interface, error) { return nil, nil },
		Bind:       b.bind,
	}
	e := New(append([]Option{WithChannelConfig(cfg)}, opts...)...)
	t.Cleanup(func() { _ = e.Close() })
	return e, b
}

// =============================================================================
// Start / Stop
// =============================================================================

func TestStart_FreshEngine(t *testing.T) {
	e, b := newTestEngine(t)

	require.NoError(t, e.Start())
	assert.True(t, e.IsRunning())

	err := e.Start()
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.True(t, IsInvalidState(err))
	assert.True(t, e.IsRunning())
	assert.Len(t, b.sockets, 1, "a rejected Start must not acquire a second channel")
}

func TestStop_NeverStarted(t *testing.T) {
	e, _ := newTestEngine(t)

	assert.ErrorIs(t, e.Stop(), ErrInvalidState)
	assert.False(t, e.IsRunning())
}

func TestStartStopStart(t *testing.T) {
	e, b := newTestEngine(t)

	require.NoError(t, e.Start())
	first := b.last()
	require.NoError(t, e.Stop())
	assert.False(t, e.IsRunning())
	assert.True(t, first.closed.Load(), "Stop must release the channel")

	require.NoError(t, e.Start())
	assert.True(t, e.IsRunning())
	assert.NotSame(t, first, b.last(), "each epoch gets a fresh channel")
	require.NoError(t, e.Stop())
	assert.ErrorIs(t, e.Stop(), ErrInvalidState)
}

func TestStart_BindFailure(t *testing.T) {
	e, b := newTestEngine(t)
	b.fail = errors.New("address already in use")
	h := newMockHost("uuid:host")
	require.NoError(t, e.AddParticipant(h))

	err := e.Start()
	require.Error(t, err)
	assert.True(t, channel.IsBindError(err))
	assert.ErrorIs(t, err, channel.ErrResource)
	assert.False(t, e.IsRunning())
	h.AssertNotCalled(t, "Start", mock.Anything)
}

func TestStart_JoinFailureLeavesNothingBehind(t *testing.T) {
	b := &binder{}
	cfg := channel.Config{
		Interfaces: func([]string) ([]net.Interface, error) {
			return []net.Interface{{Index: 1, Name: "eth0"}, {Index: 2, Name: "eth1"}}, nil
		},
		Bind: func(port int) (channel.Socket, error) {
			s, err := b.bind(port)
			if err != nil {
				return nil, err
			}
			return &failingJoinSocket{Socket: s, failOn: "eth1"}, nil
		},
	}
	e := New(WithChannelConfig(cfg))
	c := startedClient()
	require.NoError(t, e.AddParticipant(c))

	err := e.Start()
	require.Error(t, err)
	assert.True(t, channel.IsJoinError(err))
	assert.False(t, e.IsRunning())
	assert.True(t, b.last().closed.Load())
	c.AssertNotCalled(t, "Start", mock.Anything)
	assert.ErrorIs(t, e.Stop(), ErrInvalidState)
}

type failingJoinSocket struct {
	channel.Socket
	failOn string
}

func (s *failingJoinSocket) JoinGroup(ifi *net.Interface, _ net.Addr) error {
	if ifi.Name == s.failOn {
		return errors.New("join refused")
	}
	return nil
}

// =============================================================================
// Participants and the shared handle
// =============================================================================

func TestParticipantsShareHandle(t *testing.T) {
	e, _ := newTestEngine(t)
	a := startedHost("uuid:a")
	b := startedClient()
	require.NoError(t, e.AddParticipant(a))
	require.NoError(t, e.AddParticipant(b))

	require.NoError(t, e.Start())
	a.AssertNumberOfCalls(t, "Start", 1)
	b.AssertNumberOfCalls(t, "Start", 1)
	handle := listenerArg(t, &a.Mock, "Start", 0)
	assert.Same(t, handle, listenerArg(t, &b.Mock, "Start", 0))

	require.NoError(t, e.Stop())
	a.AssertNumberOfCalls(t, "Stop", 1)
	b.AssertNumberOfCalls(t, "Stop", 1)
	assert.Same(t, handle, listenerArg(t, &a.Mock, "Stop", 0))
	assert.Same(t, handle, listenerArg(t, &b.Mock, "Stop", 0))
}

func TestStart_ClientsBeforeHosts(t *testing.T) {
	e, _ := newTestEngine(t)

	var order []string
	h := newMockHost("uuid:h")
	h.On("Start", mock.Anything).Run(func(mock.Arguments) { order = append(order, "host") }).Return(nil)
	h.On("Stop", mock.Anything).Run(func(mock.Arguments) { order = append(order, "host") }).Return(nil)
	c := &mockClient{}
	c.On("IgnoreIdentifier", mock.Anything).Return()
	c.On("Start", mock.Anything).Run(func(mock.Arguments) { order = append(order, "client") }).Return(nil)
	c.On("Stop", mock.Anything).Run(func(mock.Arguments) { order = append(order, "client") }).Return(nil)

	require.NoError(t, e.AddParticipant(h))
	require.NoError(t, e.AddParticipant(c))
	require.NoError(t, e.Start())
	require.NoError(t, e.Stop())

	assert.Equal(t, []string{"client", "host", "client", "host"}, order)
}

func TestAddWhileRunning(t *testing.T) {
	e, _ := newTestEngine(t)
	a := startedHost("uuid:a")
	b := startedClient()
	require.NoError(t, e.AddParticipant(a))
	require.NoError(t, e.AddParticipant(b))
	require.NoError(t, e.Start())

	c := startedClient()
	require.NoError(t, e.AddParticipant(c))

	c.AssertNumberOfCalls(t, "Start", 1)
	assert.Same(t, listenerArg(t, &a.Mock, "Start", 0), listenerArg(t, &c.Mock, "Start", 0))
}

func TestAddWhileRunning_StartFailureKeepsRegistration(t *testing.T) {
	e, _ := newTestEngine(t)
	require.NoError(t, e.Start())

	h := newMockHost("uuid:broken")
	startErr := errors.New("http listen failed")
	h.On("Start", mock.Anything).Return(startErr)
	h.On("Stop", mock.Anything).Return(nil)

	err := e.AddParticipant(h)
	require.Error(t, err)
	assert.ErrorIs(t, err, startErr)
	assert.True(t, IsParticipantError(err))

	var perr *ParticipantError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, KindHost, perr.Kind)
	assert.Equal(t, OpStart, perr.Op)
	assert.Equal(t, "uuid:broken", perr.Identifier)

	assert.Equal(t, 1, e.Status().Hosts)
	assert.True(t, e.IsRunning())
}

func TestAddParticipant_UnknownKind(t *testing.T) {
	e, _ := newTestEngine(t)

	p := &plainParticipant{}
	err := e.AddParticipant(p)
	assert.ErrorIs(t, err, ErrUnknownParticipant)
	assert.ErrorIs(t, e.RemoveParticipant(p), ErrNotFound)
}

type plainParticipant struct{}

func (*plainParticipant) Start(*channel.Listener) error { return nil }
func (*plainParticipant) Stop(*channel.Listener) error  { return nil }

func TestAddParticipant_BothKindsIsHost(t *testing.T) {
	e, _ := newTestEngine(t)
	p := &hostAndClient{mockHost: newMockHost("uuid:dual")}

	require.NoError(t, e.AddParticipant(p))
	st := e.Status()
	assert.Equal(t, 1, st.Hosts)
	assert.Equal(t, 0, st.Clients)
	assert.Equal(t, []string{"uuid:dual"}, st.Identifiers)
}

// =============================================================================
// Suppress self discovery
// =============================================================================

func TestSuppressSelf_ClientLearnsExistingHosts(t *testing.T) {
	e, _ := newTestEngine(t)
	h := startedHost("uuid:X")
	d := startedClient()

	require.NoError(t, e.AddParticipant(h))
	require.NoError(t, e.AddParticipant(d))
	d.AssertCalled(t, "IgnoreIdentifier", "uuid:X")
	d.AssertNumberOfCalls(t, "IgnoreIdentifier", 1)

	// Later churn never re-propagates.
	require.NoError(t, e.Start())
	require.NoError(t, e.AddParticipant(startedClient()))
	require.NoError(t, e.Stop())
	require.NoError(t, e.RemoveParticipant(h))
	require.NoError(t, e.Start())
	require.NoError(t, e.Stop())

	d.AssertNumberOfCalls(t, "IgnoreIdentifier", 1)
}

func TestSuppressSelf_NewHostInformsExistingClients(t *testing.T) {
	e, _ := newTestEngine(t)
	d1 := startedClient()
	d2 := startedClient()
	require.NoError(t, e.AddParticipant(d1))
	require.NoError(t, e.AddParticipant(d2))

	require.NoError(t, e.AddParticipant(startedHost("uuid:Y")))

	d1.AssertCalled(t, "IgnoreIdentifier", "uuid:Y")
	d2.AssertCalled(t, "IgnoreIdentifier", "uuid:Y")
	d1.AssertNumberOfCalls(t, "IgnoreIdentifier", 1)
	d2.AssertNumberOfCalls(t, "IgnoreIdentifier", 1)
}

func TestSuppressSelf_Disabled(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
		set  func(*Engine)
	}{
		{name: "option", opts: []Option{WithSuppressSelfDiscovery(false)}},
		{name: "setter", set: func(e *Engine) { e.SetSuppressSelfDiscovery(false) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newTestEngine(t, tt.opts...)
			if tt.set != nil {
				tt.set(e)
			}
			assert.False(t, e.SuppressSelfDiscovery())

			d := startedClient()
			require.NoError(t, e.AddParticipant(startedHost("uuid:A")))
			require.NoError(t, e.AddParticipant(d))
			require.NoError(t, e.AddParticipant(startedHost("uuid:B")))

			d.AssertNotCalled(t, "IgnoreIdentifier", mock.Anything)
		})
	}
}

func TestSuppressSelf_DefaultEnabled(t *testing.T) {
	assert.True(t, New().SuppressSelfDiscovery())
}

// =============================================================================
// Remove
// =============================================================================

func TestRemove_NeverAdded(t *testing.T) {
	e, _ := newTestEngine(t)
	require.NoError(t, e.AddParticipant(startedHost("uuid:kept")))
	before := e.Status()

	stranger := startedClient()
	err := e.RemoveParticipant(stranger)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, before, e.Status())
	stranger.AssertNotCalled(t, "Stop", mock.Anything)
}

func TestRemove_WhileRunningStopsParticipant(t *testing.T) {
	e, _ := newTestEngine(t)
	c := startedClient()
	require.NoError(t, e.AddParticipant(c))
	require.NoError(t, e.Start())

	require.NoError(t, e.RemoveParticipant(c))
	c.AssertNumberOfCalls(t, "Stop", 1)
	assert.Equal(t, 0, e.Status().Clients)

	require.NoError(t, e.Stop())
	c.AssertNumberOfCalls(t, "Stop", 1)
}

func TestRemove_StopFailureStillRemoves(t *testing.T) {
	e, _ := newTestEngine(t)
	h := newMockHost("uuid:sticky")
	h.On("Start", mock.Anything).Return(nil)
	h.On("Stop", mock.Anything).Return(errors.New("byebye failed"))
	require.NoError(t, e.AddParticipant(h))
	require.NoError(t, e.Start())

	require.NoError(t, e.RemoveParticipant(h))
	assert.Equal(t, 0, e.Status().Hosts)
	assert.True(t, e.IsRunning())
}

func TestRemove_WhileStoppedDoesNotStop(t *testing.T) {
	e, _ := newTestEngine(t)
	h := newMockHost("uuid:idle")
	require.NoError(t, e.AddParticipant(h))

	require.NoError(t, e.RemoveParticipant(h))
	h.AssertNotCalled(t, "Stop", mock.Anything)
}

func TestRemove_FirstOccurrenceOnly(t *testing.T) {
	e, _ := newTestEngine(t)
	h := startedHost("uuid:twice")
	require.NoError(t, e.AddParticipant(h))
	require.NoError(t, e.AddParticipant(h))
	assert.Equal(t, 2, e.Status().Hosts)

	require.NoError(t, e.RemoveParticipant(h))
	assert.Equal(t, 1, e.Status().Hosts)
	require.NoError(t, e.RemoveParticipant(h))
	assert.ErrorIs(t, e.RemoveParticipant(h), ErrNotFound)
}

// =============================================================================
// Failure policy
// =============================================================================

func TestStart_ParticipantFailureNoRollback(t *testing.T) {
	e, b := newTestEngine(t)
	ok := startedClient()
	bad := newMockHost("uuid:bad")
	startErr := errors.New("announce failed")
	bad.On("Start", mock.Anything).Return(startErr)
	require.NoError(t, e.AddParticipant(ok))
	require.NoError(t, e.AddParticipant(bad))

	err := e.Start()
	require.Error(t, err)
	assert.ErrorIs(t, err, startErr)
	assert.ErrorIs(t, err, ErrParticipant)
	assert.False(t, e.IsRunning())
	assert.True(t, b.last().closed.Load(), "failed Start must release the channel")
	ok.AssertNumberOfCalls(t, "Start", 1)
	ok.AssertNotCalled(t, "Stop", mock.Anything)
	assert.ErrorIs(t, e.Stop(), ErrInvalidState)
}

func TestStart_ParticipantFailureWithRollback(t *testing.T) {
	e, _ := newTestEngine(t, WithStartRollback(true))

	var stopped []string
	first := &mockClient{}
	first.On("IgnoreIdentifier", mock.Anything).Return()
	first.On("Start", mock.Anything).Return(nil)
	first.On("Stop", mock.Anything).Run(func(mock.Arguments) { stopped = append(stopped, "first") }).Return(nil)
	second := &mockClient{}
	second.On("IgnoreIdentifier", mock.Anything).Return()
	second.On("Start", mock.Anything).Return(nil)
	second.On("Stop", mock.Anything).Run(func(mock.Arguments) { stopped = append(stopped, "second") }).Return(nil)
	bad := newMockHost("uuid:bad")
	bad.On("Start", mock.Anything).Return(errors.New("boom"))

	require.NoError(t, e.AddParticipant(first))
	require.NoError(t, e.AddParticipant(second))
	require.NoError(t, e.AddParticipant(bad))

	require.Error(t, e.Start())
	assert.False(t, e.IsRunning())
	assert.Equal(t, []string{"second", "first"}, stopped)
	bad.AssertNotCalled(t, "Stop", mock.Anything)
}

// strictClient rejects a second Start unless stopped in between
type strictClient struct {
	mu      sync.Mutex
	started bool
}

func (c *strictClient) Start(*channel.Listener) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return ErrInvalidState
	}
	c.started = true
	return nil
}

func (c *strictClient) Stop(*channel.Listener) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.started = false
	return nil
}

func (c *strictClient) IgnoreIdentifier(string) {}

func TestStart_RetryAfterFailure(t *testing.T) {
	tests := []struct {
		name     string
		rollback bool
		wantErr  bool
	}{
		{name: "without rollback the started client rejects the retry", rollback: false, wantErr: true},
		{name: "with rollback the retry succeeds", rollback: true, wantErr: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newTestEngine(t, WithStartRollback(tt.rollback))

			client := &strictClient{}

			flaky := newMockHost("uuid:flaky")
			flaky.On("Start", mock.Anything).Return(errors.New("boom")).Once()
			flaky.On("Start", mock.Anything).Return(nil)
			flaky.On("Stop", mock.Anything).Return(nil)

			require.NoError(t, e.AddParticipant(client))
			require.NoError(t, e.AddParticipant(flaky))
			require.Error(t, e.Start())

			err := e.Start()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidState)
				assert.ErrorIs(t, err, ErrParticipant)
				assert.False(t, e.IsRunning())
				return
			}
			require.NoError(t, err)
			assert.True(t, e.IsRunning())
			require.NoError(t, e.Stop())
		})
	}
}

func TestStop_ParticipantFailureStillReleases(t *testing.T) {
	e, b := newTestEngine(t)
	bad := &mockClient{}
	bad.On("IgnoreIdentifier", mock.Anything).Return()
	bad.On("Start", mock.Anything).Return(nil)
	bad.On("Stop", mock.Anything).Return(errors.New("stuck"))
	good := startedHost("uuid:good")
	require.NoError(t, e.AddParticipant(bad))
	require.NoError(t, e.AddParticipant(good))
	require.NoError(t, e.Start())

	assert.NoError(t, e.Stop())
	assert.False(t, e.IsRunning())
	assert.True(t, b.last().closed.Load())
	good.AssertNumberOfCalls(t, "Stop", 1)
}

// =============================================================================
// Boot id, close, introspection
// =============================================================================

func TestStart_AdvancesBootID(t *testing.T) {
	e, _ := newTestEngine(t)
	h := &bootHost{mockHost: startedHost("uuid:boot")}
	require.NoError(t, e.AddParticipant(h))

	require.NoError(t, e.Start())
	require.NoError(t, e.Stop())
	require.NoError(t, e.Start())
	assert.Equal(t, int32(2), h.boots.Load())

	late := &bootHost{mockHost: startedHost("uuid:late")}
	require.NoError(t, e.AddParticipant(late))
	assert.Zero(t, late.boots.Load(), "hosts added while running keep their boot id")
}

func TestClose(t *testing.T) {
	e, b := newTestEngine(t)
	h := startedHost("uuid:c")
	require.NoError(t, e.AddParticipant(h))
	require.NoError(t, e.Start())

	require.NoError(t, e.Close())
	assert.False(t, e.IsRunning())
	assert.True(t, b.last().closed.Load())
	h.AssertNumberOfCalls(t, "Stop", 1)
	assert.Equal(t, Status{Identifiers: []string{}}, e.Status())

	require.NoError(t, e.Close())
}

func TestInspect(t *testing.T) {
	e, _ := newTestEngine(t)

	_, err := e.Inspect()
	assert.ErrorIs(t, err, catalog.ErrNotFound)

	plain := startedClient()
	require.NoError(t, e.AddParticipant(plain))
	_, err = e.Inspect()
	assert.ErrorIs(t, err, catalog.ErrNotFound)

	first := &catalogClient{mockClient: startedClient(), devices: []*catalog.Device{
		{Identifier: "uuid:1", FriendlyName: "Lamp"},
	}}
	second := &catalogClient{mockClient: startedClient(), devices: []*catalog.Device{
		{Identifier: "uuid:2", FriendlyName: "Other"},
	}}
	require.NoError(t, e.AddParticipant(first))
	require.NoError(t, e.AddParticipant(second))

	in, err := e.Inspect()
	require.NoError(t, err)
	assert.Equal(t, 1, in.Count())
	name, err := in.FriendlyName(0)
	require.NoError(t, err)
	assert.Equal(t, "Lamp", name)
}

// =============================================================================
// Concurrency
// =============================================================================

type countingClient struct {
	starts atomic.Int32
	stops  atomic.Int32
}

func (c *countingClient) Start(*channel.Listener) error { c.starts.Add(1); return nil }
func (c *countingClient) Stop(*channel.Listener) error  { c.stops.Add(1); return nil }
func (c *countingClient) IgnoreIdentifier(string)       {}

type countingHost struct {
	countingClient
	id string
}

func (h *countingHost) Identifier() string { return h.id }

func TestConcurrentAddRemove(t *testing.T) {
	e, _ := newTestEngine(t)
	require.NoError(t, e.Start())

	const workers = 16
	const perWorker = 25

	var wg sync.WaitGroup
	kept := make([][]Participant, workers)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				var p Participant
				if i%2 == 0 {
					p = &countingHost{id: fmt.Sprintf("uuid:%d-%d", w, i)}
				} else {
					p = &countingClient{}
				}
				assert.NoError(t, e.AddParticipant(p))
				if i%3 == 0 {
					assert.NoError(t, e.RemoveParticipant(p))
					continue
				}
				kept[w] = append(kept[w], p)
			}
		}(w)
	}
	wg.Wait()

	var wantHosts, wantClients int
	for _, ps := range kept {
		for _, p := range ps {
			if _, ok := p.(AdvertisingHost); ok {
				wantHosts++
			} else {
				wantClients++
			}
		}
	}
	st := e.Status()
	assert.Equal(t, wantHosts, st.Hosts)
	assert.Equal(t, wantClients, st.Clients)

	require.NoError(t, e.Stop())
	for _, ps := range kept {
		for _, p := range ps {
			var c *countingClient
			switch v := p.(type) {
			case *countingHost:
				c = &v.countingClient
			case *countingClient:
				c = v
			}
			assert.Equal(t, int32(1), c.starts.Load())
			assert.Equal(t, int32(1), c.stops.Load())
		}
	}
}
