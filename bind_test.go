package zorsh

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type label string

type account struct {
	Owner   label
	Balance uint64 `borsh:"amount"`
	Note    string `borsh:"-"`
	Tags    map[string]struct{}
}

func TestBind(t *testing.T) {
	s := Bind[account](Struct(
		Field("owner", String()),
		Field("amount", U64()),
		Field("tags", HashSet(String())),
	))

	in := account{Owner: "ann", Balance: 9, Note: "dropped", Tags: map[string]struct{}{"b": {}, "a": {}}}
	b, err := s.Serialize(in)
	require.NoError(t, err)
	assert.Equal(t, []byte{
		3, 0, 0, 0, 'a', 'n', 'n',
		9, 0, 0, 0, 0, 0, 0, 0,
		2, 0, 0, 0, 1, 0, 0, 0, 'a', 1, 0, 0, 0, 'b',
	}, b)

	out, err := s.Deserialize(b)
	require.NoError(t, err)
	in.Note = ""
	assert.Equal(t, in, out)

	p, err := Dynamic(s.Descriptor()).Serialize(&in)
	require.NoError(t, err)
	assert.Equal(t, b, p)
}

func TestBindMisuse(t *testing.T) {
	cases := map[string]func(){
		"not a struct": func() { Bind[int](Struct(Field("a", U8()))) },
		"missing":      func() { Bind[account](Struct(Field("owner", String()), Field("memo", String()))) },
		"skipped":      func() { Bind[account](Struct(Field("note", String()))) },
		"wrong type":   func() { Bind[account](Struct(Field("owner", U8()))) },
		"other kind":   func() { Bind[account](Struct(Field("amount", I64()))) },
		"record field": func() { Bind[Player](playerSchema) },
	}
	for name, f := range cases {
		t.Run(name, func(t *testing.T) {
			defer func() {
				err, ok := recover().(error)
				require.True(t, ok, "expected a panic with an error")
				assert.ErrorIs(t, err, ErrSchemaConfig)
			}()
			f()
		})
	}
}
