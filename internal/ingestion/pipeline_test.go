package ingestion

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/wordfreq/internal/frequency"
	"github.com/Adithya-Monish-Kumar-K/wordfreq/internal/ingestion/source"
	"github.com/Adithya-Monish-Kumar-K/wordfreq/internal/ingestion/validator"
	apperrors "github.com/Adithya-Monish-Kumar-K/wordfreq/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/wordfreq/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runInput(t *testing.T, input string, opts ...Option) (map[string]int, Summary, *Pipeline) {
	t.Helper()
	p := New(source.NewReader(strings.NewReader(input)), frequency.NewTable(), opts...)
	sum, err := p.Run(context.Background())
	require.NoError(t, err)
	got := make(map[string]int)
	for _, e := range p.Table().Entries() {
		got[e.Word] = e.Count
	}
	return got, sum, p
}

func TestRun_Scenarios(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  map[string]int
	}{
		{"single word", "hello\nend\n", map[string]int{"hello": 1}},
		{"duplicate", "hello\nhello\nend\n", map[string]int{"hello": 2}},
		{"two words", "hello\nworld\nend\n", map[string]int{"hello": 1, "world": 1}},
		{"special characters", "hello!\nworld@\nend\n", map[string]int{"hello!": 1, "world@": 1}},
		{"case sensitive", "Hello\nhello\nHELLO\nend\n", map[string]int{"Hello": 1, "hello": 1, "HELLO": 1}},
		{"immediate EOF", "", map[string]int{}},
		{"EOF without sentinel", "a\nb\na", map[string]int{"a": 2, "b": 1}},
		{"sentinel first", "end\nhello\n", map[string]int{}},
		{"words after sentinel ignored", "a\nend\nb\nend\n", map[string]int{"a": 1}},
		{"sentinel is exact", "End\n end\nend \nend\n", map[string]int{"End": 1, " end": 1, "end ": 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, sum, p := runInput(t, tt.input)
			assert.Equal(t, tt.want, got)
			_, hasSentinel := p.Table().Lookup(frequency.Sentinel)
			assert.False(t, hasSentinel)
			assert.Equal(t, StateDone, p.State())
			assert.Equal(t, sum.Sent, sum.Recorded)
			assert.Equal(t, len(tt.want), sum.Distinct)
		})
	}
}

func TestRun_TotalEqualsWordsSent(t *testing.T) {
	for _, n := range []int{0, 1, 2, 17, 1000} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			var b strings.Builder
			for i := 0; i < n; i++ {
				fmt.Fprintf(&b, "w%d\n", i%13)
			}
			b.WriteString("end\n")

			_, sum, p := runInput(t, b.String())
			assert.Equal(t, n, p.Table().Total())
			assert.Equal(t, n, sum.Sent)
			assert.Equal(t, n, sum.Recorded)
		})
	}
}

func TestRun_PermutationInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	words := make([]string, 300)
	for i := range words {
		words[i] = fmt.Sprintf("w%d", rng.Intn(40))
	}
	shuffled := append([]string(nil), words...)
	rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	a, _, _ := runInput(t, strings.Join(words, "\n")+"\nend\n")
	b, _, _ := runInput(t, strings.Join(shuffled, "\n")+"\nend\n")
	assert.Equal(t, a, b)
}

func TestRun_ListBackendMatchesMap(t *testing.T) {
	input := "b\na\nb\nc\nb\nend\n"
	want, _, _ := runInput(t, input)

	p := New(source.NewReader(strings.NewReader(input)), frequency.NewListTable())
	_, err := p.Run(context.Background())
	require.NoError(t, err)
	got := make(map[string]int)
	for _, e := range p.Table().Entries() {
		got[e.Word] = e.Count
	}
	assert.Equal(t, want, got)
}

// recordingSource remembers every call so the test can assert nothing is read
// after the stream ends.
type recordingSource struct {
	lines []string
	err   error
	calls int
}

func (s *recordingSource) ReadLine(context.Context) (string, error) {
	s.calls++
	if len(s.lines) == 0 {
		return "", s.err
	}
	l := s.lines[0]
	s.lines = s.lines[1:]
	return l, nil
}

func TestRun_ReadErrorFoldedIntoTermination(t *testing.T) {
	boom := errors.New("device unplugged")
	src := &recordingSource{lines: []string{"a", "b"}, err: boom}
	p := New(src, frequency.NewTable())

	sum, err := p.Run(context.Background())

	require.NoError(t, err)
	assert.ErrorIs(t, sum.ReadErr, boom)
	assert.Equal(t, 2, p.Table().Total())
	assert.Equal(t, 3, src.calls, "no read after the first failure")
}

func TestRun_NoReadAfterSentinel(t *testing.T) {
	src := &recordingSource{lines: []string{"a", "end", "b"}}
	p := New(src, frequency.NewTable())

	_, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls)
}

func TestRun_EOFIsNotReported(t *testing.T) {
	_, sum, _ := runInput(t, "a\n")
	assert.NoError(t, sum.ReadErr)
}

func TestRun_OnlyOnce(t *testing.T) {
	p := New(source.NewReader(strings.NewReader("end\n")), frequency.NewTable())
	_, err := p.Run(context.Background())
	require.NoError(t, err)

	_, err = p.Run(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrPipelineUsed)
}

func TestRun_Validator(t *testing.T) {
	input := "hello\nworld\nhello world\nx\x01\x02\x03\nrandom\x7f\xff\n\x1b[1mworld\x1b[0m\n!@#$%^&*\n\nend\n"
	got, sum, _ := runInput(t, input, WithValidator(validator.ValidateWord))

	assert.Equal(t, map[string]int{"hello": 1, "world": 1, "!@#$%^&*": 1}, got)
	assert.Equal(t, 5, sum.Skipped)
}

func TestRun_ValidatorSkipsEmptyLines(t *testing.T) {
	got, _, _ := runInput(t, "\n\nhello\n\n\nend\n", WithValidator(validator.ValidateWord))
	assert.Equal(t, map[string]int{"hello": 1}, got)
}

func TestRun_WithoutValidatorRecordsLiterally(t *testing.T) {
	got, _, _ := runInput(t, "\nhello world\nend\n")
	assert.Equal(t, map[string]int{"": 1, "hello world": 1}, got)
}

func TestRun_Metrics(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	_, _, _ = runInput(t, "a\nb\na\n\nend\n", WithMetrics(m), WithValidator(validator.ValidateWord))

	assert.Equal(t, 5.0, testutil.ToFloat64(m.LinesReadTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LinesSkippedTotal))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.WordsSentTotal))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.WordsRecordedTotal))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.DistinctWords))
}

// slowTable stalls each Record so the test can observe the producer reading
// the next line while the worker is still busy with the current one.
type slowTable struct {
	*frequency.Table
	entered chan string
	release chan struct{}
}

func (s *slowTable) Record(word string) {
	s.entered <- word
	<-s.release
	s.Table.Record(word)
}

type signallingSource struct {
	lines []string
	reads chan int
	n     int
}

func (s *signallingSource) ReadLine(context.Context) (string, error) {
	s.n++
	s.reads <- s.n
	if len(s.lines) == 0 {
		return "", errors.New("exhausted")
	}
	l := s.lines[0]
	s.lines = s.lines[1:]
	return l, nil
}

func TestRun_ProducerOverlapsWithRecord(t *testing.T) {
	tbl := &slowTable{
		Table:   frequency.NewTable(),
		entered: make(chan string),
		release: make(chan struct{}),
	}
	src := &signallingSource{lines: []string{"a", "b", "end"}, reads: make(chan int, 8)}
	p := New(src, tbl)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = p.Run(context.Background())
	}()

	require.Equal(t, "a", <-tbl.entered)
	// the worker is stuck inside Record("a"); the producer must keep going,
	// park "b" in the slot and read the sentinel.
	waitRead := func(want int) {
		select {
		case n := <-src.reads:
			require.Equal(t, want, n)
		case <-time.After(time.Second):
			t.Fatalf("read %d did not happen while worker was busy", want)
		}
	}
	waitRead(1)
	waitRead(2)
	waitRead(3)
	require.Eventually(t, p.ch.Pending, time.Second, time.Millisecond)

	// the sentinel cannot be deposited while "b" occupies the slot
	select {
	case <-done:
		t.Fatal("pipeline finished while the worker was still recording")
	case <-time.After(20 * time.Millisecond):
	}
	assert.Equal(t, StateRunning, p.State())

	tbl.release <- struct{}{}
	require.Equal(t, "b", <-tbl.entered)
	tbl.release <- struct{}{}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("pipeline did not finish")
	}
	assert.Equal(t, StateDone, p.State())
	assert.Equal(t, 2, tbl.Total())
}

func TestRun_RunIDFromContextDoesNotPanic(t *testing.T) {
	p := New(source.NewReader(strings.NewReader("x\n")), frequency.NewTable())
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := p.Run(ctx)
	assert.NoError(t, err)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "running", StateRunning.String())
	assert.Equal(t, "sentinel_seen", StateSentinelSeen.String())
	assert.Equal(t, "done", StateDone.String())
	assert.Equal(t, "unknown", State(9).String())
}

func BenchmarkRun(b *testing.B) {
	var sb strings.Builder
	for i := 0; i < 10000; i++ {
		fmt.Fprintf(&sb, "word-%d\n", i%500)
	}
	sb.WriteString("end\n")
	input := sb.String()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p := New(source.NewReader(strings.NewReader(input)), frequency.NewTable())
		if _, err := p.Run(context.Background()); err != nil {
			b.Fatal(err)
		}
	}
}
