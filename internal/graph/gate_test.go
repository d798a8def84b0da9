package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBearerToken(t *testing.T) {
	token, ok := bearerToken("Bearer abc.def.ghi")
	assert.True(t, ok)
	assert.Equal(t, "abc.def.ghi", token)

	token, ok = bearerToken("bearer abc.def.ghi")
	assert.True(t, ok, "scheme is case-insensitive")
	assert.Equal(t, "abc.def.ghi", token)

	_, ok = bearerToken("")
	assert.False(t, ok)

	_, ok = bearerToken("Basic dXNlcjpwYXNz")
	assert.False(t, ok)

	_, ok = bearerToken("Bearer ")
	assert.False(t, ok)

	_, ok = bearerToken("abc.def.ghi")
	assert.False(t, ok)
}

func TestIsExemptQuery_ExemptMutations(t *testing.T) {
	assert.True(t, isExemptQuery(`mutation { createAccount(email: "a@b.com", password: "Pass1234") { ok } }`))
	assert.True(t, isExemptQuery(`mutation { login(email: "a@b.com", password: "Pass1234") { ok token } }`))
	assert.True(t, isExemptQuery(`mutation { verifyEmail(code: "abc") { ok } }`))
}

func TestIsExemptQuery_Introspection(t *testing.T) {
	assert.True(t, isExemptQuery(`{ __schema { types { name } } }`))
	assert.True(t, isExemptQuery(`{ __typename }`))
}

func TestIsExemptQuery_ProtectedOperations(t *testing.T) {
	assert.False(t, isExemptQuery(`{ me { id email } }`))
	assert.False(t, isExemptQuery(`mutation { editProfile(email: "x@y.com") { ok } }`))
	assert.False(t, isExemptQuery(`{ restaurants { ok } }`))
}

func TestIsExemptQuery_MixedSelection(t *testing.T) {
	// One protected field poisons the whole document.
	assert.False(t, isExemptQuery(`mutation { login(email: "a@b.com", password: "p") { ok } } query { me { id } }`))
}

func TestIsExemptQuery_Unparseable(t *testing.T) {
	assert.False(t, isExemptQuery(`{ me {`))
	assert.False(t, isExemptQuery(``))
}
