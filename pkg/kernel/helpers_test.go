package kernel

import (
	"context"
	"sync"
	"testing"

	"github.com/germanamz/kernelkit/pkg/chathistory"
	"github.com/germanamz/kernelkit/pkg/modeladapter"
	"github.com/germanamz/kernelkit/pkg/modeladapter/usage"
	"github.com/germanamz/kernelkit/pkg/plugin"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)
}

// scriptedChat replies with the queued messages in order and records what
// it was asked.
type scriptedChat struct {
	mu      sync.Mutex
	replies []chathistory.Message
	seen    [][]string // function names offered per call
	tracker usage.Tracker
}

func (s *scriptedChat) Complete(_ context.Context, _ *chathistory.History, fns []plugin.Function) (chathistory.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, len(fns))
	for i, f := range fns {
		names[i] = f.Name
	}
	s.seen = append(s.seen, names)
	s.tracker.Add(usage.TokenCount{InputTokens: 10, OutputTokens: 5})

	if len(s.replies) == 0 {
		return chathistory.NewText("", chathistory.Assistant, "done"), nil
	}
	msg := s.replies[0]
	s.replies = s.replies[1:]
	return msg, nil
}

func (s *scriptedChat) UsageTracker() *usage.Tracker { return &s.tracker }

func (s *scriptedChat) LastRateLimitInfo() *modeladapter.RateLimitInfo {
	return &modeladapter.RateLimitInfo{RemainingRequests: 3}
}

type fakeEmbedder struct{}

func (fakeEmbedder) Embed(_ context.Context, inputs []string) ([][]float32, error) {
	out := make([][]float32, len(inputs))
	for i, in := range inputs {
		out[i] = []float32{float32(len(in))}
	}
	return out, nil
}

// recorder logs the order in which build steps happen.
type recorder struct {
	mu    sync.Mutex
	steps []string
}

func (r *recorder) add(step string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps = append(r.steps, step)
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.steps...)
}

// recordingBuilder wraps a KernelBuilder and records each call.
type recordingBuilder struct {
	*KernelBuilder
	rec *recorder
}

func (b *recordingBuilder) AddConnector(t Type, c any) {
	b.rec.add("addConnector:" + t.String())
	b.KernelBuilder.AddConnector(t, c)
}

func (b *recordingBuilder) AddPlugin(p *plugin.Plugin) {
	b.rec.add("addPlugin:" + p.Name)
	b.KernelBuilder.AddPlugin(p)
}

func (b *recordingBuilder) Build() (*Kernel, error) {
	b.rec.add("build")
	return b.KernelBuilder.Build()
}

func newRecordingBuilder(opts *Options, rec *recorder) *recordingBuilder {
	b := &recordingBuilder{KernelBuilder: NewBuilder(opts), rec: rec}
	b.KernelBuilder.AddConnector(Chat, &scriptedChat{})
	return b
}
