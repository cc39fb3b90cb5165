package identity_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dft-ledger/ledgerd/internal/core/ledger/identity"
)

func TestPrincipalTextRoundTrip(t *testing.T) {
	p := identity.Principal{0x01, 0x02, 0x03, 0x04, 0x05}
	text := p.String()
	require.NotEmpty(t, text)

	parsed, err := identity.ParsePrincipal(text)
	require.NoError(t, err)
	require.True(t, p.Equal(parsed))
}

func TestParsePrincipalRejectsBadChecksum(t *testing.T) {
	p := identity.Principal{0x01, 0x02, 0x03}
	text := p.String()

	alphabet := "abcdefghijklmnopqrstuvwxyz234567"
	runes := []byte(text)
	for i, c := range runes {
		if c == '-' {
			continue
		}
		for _, replacement := range alphabet {
			if byte(replacement) != c {
				runes[i] = byte(replacement)
				break
			}
		}
		break
	}
	corrupted := string(runes)
	require.NotEqual(t, text, corrupted)

	_, err := identity.ParsePrincipal(corrupted)
	require.Error(t, err)
}

func TestAnonymousPrincipal(t *testing.T) {
	anon := identity.Anonymous()
	require.True(t, anon.IsAnonymous())

	other := identity.Principal{0x01}
	require.False(t, other.IsAnonymous())
}

func TestHolderKeyDistinguishesSubAccounts(t *testing.T) {
	p := identity.Principal{0xAA, 0xBB}
	h1 := identity.NewDefaultHolder(p)
	h2 := identity.NewHolder(p, identity.SubAccount{0x01})
	require.NotEqual(t, h1.Key(), h2.Key())
}

func TestHolderStringOmitsZeroSubAccount(t *testing.T) {
	p := identity.Principal{0x01, 0x02}
	h := identity.NewDefaultHolder(p)
	require.Equal(t, p.String(), h.String())

	withSub := identity.NewHolder(p, identity.SubAccount{0x01})
	require.NotEqual(t, p.String(), withSub.String())
}

func TestParseHolderRoundTrip(t *testing.T) {
	p := identity.Principal{0xAA, 0xBB, 0xCC}

	withoutSub := identity.NewDefaultHolder(p)
	parsed, err := identity.ParseHolder(withoutSub.String())
	require.NoError(t, err)
	require.Equal(t, withoutSub.Key(), parsed.Key())

	withSub := identity.NewHolder(p, identity.SubAccount{0x01, 0x02, 0x03})
	text := withSub.String()
	require.Contains(t, text, "-")

	parsed, err = identity.ParseHolder(text)
	require.NoError(t, err)
	require.Equal(t, withSub.Key(), parsed.Key())
}

func TestParseHolderRejectsMalformedText(t *testing.T) {
	_, err := identity.ParseHolder("not-a-valid-principal")
	require.Error(t, err)
}
