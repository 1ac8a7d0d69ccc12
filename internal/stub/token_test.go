package stub

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTokens_IssueVerify(t *testing.T) {
	t.Parallel()

	tk := NewTokens("unit-secret", time.Minute, "stub-test")

	raw, err := tk.Issue(7, "alice")
	require.NoError(t, err)

	uid, err := tk.Verify(raw)
	require.NoError(t, err)
	require.EqualValues(t, 7, uid)
}

func TestTokens_Expired(t *testing.T) {
	t.Parallel()

	tk := NewTokens("unit-secret", time.Minute, "stub-test")
	raw, err := tk.Issue(7, "alice")
	require.NoError(t, err)

	tk.now = func() time.Time { return time.Now().Add(time.Hour) }

	_, err = tk.Verify(raw)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokens_WrongSecretOrIssuer(t *testing.T) {
	t.Parallel()

	raw, err := NewTokens("other", time.Minute, "stub-test").Issue(1, "bob")
	require.NoError(t, err)

	_, err = NewTokens("unit-secret", time.Minute, "stub-test").Verify(raw)
	require.ErrorIs(t, err, ErrInvalidToken)

	raw, err = NewTokens("unit-secret", time.Minute, "elsewhere").Issue(1, "bob")
	require.NoError(t, err)

	_, err = NewTokens("unit-secret", time.Minute, "stub-test").Verify(raw)
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = NewTokens("unit-secret", time.Minute, "stub-test").Verify("undefined")
	require.ErrorIs(t, err, ErrInvalidToken)
}
