package conv

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSingleIsOrderIndependent(t *testing.T) {
	pairs := [][2]int64{{1, 2}, {42, 7}, {1001, 1000}, {5, 900000000000}}
	for _, p := range pairs {
		assert.Equal(t, Single(p[0], p[1]), Single(p[1], p[0]))
	}
	assert.Equal(t, "s_7_42", Single(42, 7))
}

func TestClassify(t *testing.T) {
	kind, err := Classify(Single(3, 9))
	require.NoError(t, err)
	assert.Equal(t, KindSingle, kind)

	kind, err = Classify(Group(15))
	require.NoError(t, err)
	assert.Equal(t, KindGroup, kind)

	for _, bad := range []string{"", "x_1_2", "s_1", "s_1_2_3", "s_a_b", "g_", "g_abc", "12"} {
		_, err := Classify(bad)
		assert.Truef(t, errors.Is(err, ErrMalformedIdentity), "id %q", bad)
	}
}

func TestCounterpartOf(t *testing.T) {
	id := Single(10, 20)

	other, err := CounterpartOf(id, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 20, other)

	other, err = CounterpartOf(id, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 10, other)

	_, err = CounterpartOf(id, 30)
	assert.True(t, errors.Is(err, ErrNotAParticipant))

	_, err = CounterpartOf(Group(1), 10)
	assert.True(t, errors.Is(err, ErrMalformedIdentity))
}

func TestGroupOf(t *testing.T) {
	gid, err := GroupOf(Group(77))
	require.NoError(t, err)
	assert.EqualValues(t, 77, gid)

	_, err = GroupOf(Single(1, 2))
	assert.True(t, errors.Is(err, ErrMalformedIdentity))
}

func TestIsWellFormed(t *testing.T) {
	assert.True(t, IsWellFormed("s_1_2"))
	assert.True(t, IsWellFormed("g_99"))
	assert.False(t, IsWellFormed("s_1_2_3"))
	assert.False(t, IsWellFormed("group_99"))
	assert.False(t, IsWellFormed(""))
}
