package session

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/datachat-cli/internal/frame"
)

const data = "Region,Amount\nNorth,1\nSouth,2\n"

func load(t *testing.T, s *Session, name, body string) bool {
	t.Helper()
	replaced, err := s.Load(name, int64(len(body)), strings.NewReader(body), frame.DefaultOptions())
	require.NoError(t, err)
	return replaced
}

func TestNewSession(t *testing.T) {
	s := New()
	assert.NotEmpty(t, s.ID)
	assert.NotEqual(t, s.ID, New().ID)
	assert.Nil(t, s.Data())
	assert.Empty(t, s.Transcript())
	assert.Empty(t, s.Insights())
}

func TestLoadSeedsTranscriptAndClearsMemory(t *testing.T) {
	s := New()
	require.True(t, load(t, s, "a.csv", data))
	s.Append(RoleUser, "oi")
	s.AddInsights("first")
	s.SetLastCode("fmt.Println(1)")

	require.True(t, load(t, s, "b.csv", data))
	tr := s.Transcript()
	require.Len(t, tr, 1)
	assert.Equal(t, RoleAssistant, tr[0].Role)
	assert.Equal(t, Welcome, tr[0].Text)
	assert.Empty(t, s.Insights())
	assert.Empty(t, s.LastCode())
	assert.Equal(t, Identity{Name: "b.csv", Size: int64(len(data))}, s.Identity())
	assert.Equal(t, 2, s.Data().Len())
}

func TestLoadSameNameDifferentSizeResets(t *testing.T) {
	s := New()
	require.True(t, load(t, s, "a.csv", data))
	s.Append(RoleUser, "oi")
	s.AddInsights("first")

	bigger := data + "East,3\n"
	require.True(t, load(t, s, "a.csv", bigger))
	tr := s.Transcript()
	require.Len(t, tr, 1)
	assert.Equal(t, Welcome, tr[0].Text)
	assert.Empty(t, s.Insights())
	assert.Equal(t, Identity{Name: "a.csv", Size: int64(len(bigger))}, s.Identity())
	assert.Equal(t, 3, s.Data().Len())
}

func TestLoadSameIdentityIsNoop(t *testing.T) {
	s := New()
	require.True(t, load(t, s, "a.csv", data))
	s.AddInsights("kept")
	before := s.Data()

	// same name and size, even with different bytes, is the same upload
	other := strings.Replace(data, "North", "NORTH", 1)
	assert.False(t, load(t, s, "a.csv", other))
	assert.Same(t, before, s.Data())
	assert.Equal(t, []string{"kept"}, s.Insights())
}

func TestLoadFailureLeavesStateUntouched(t *testing.T) {
	s := New()
	require.True(t, load(t, s, "a.csv", data))
	s.AddInsights("kept")

	replaced, err := s.Load("empty.csv", 0, strings.NewReader(""), frame.DefaultOptions())
	require.Error(t, err)
	assert.True(t, errors.Is(err, frame.ErrEmpty))
	assert.False(t, replaced)
	assert.Equal(t, "a.csv", s.Identity().Name)
	assert.Equal(t, []string{"kept"}, s.Insights())
}

func TestAccessorsReturnCopies(t *testing.T) {
	s := New()
	s.Append(RoleUser, "a")
	s.AddInsights("x", "x")

	tr := s.Transcript()
	tr[0].Text = "mutated"
	ins := s.Insights()
	ins[0] = "mutated"

	assert.Equal(t, "a", s.Transcript()[0].Text)
	assert.Equal(t, []string{"x", "x"}, s.Insights())
}
