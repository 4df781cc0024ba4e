package captcha

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWidget_OnChangeNotifiesListener(t *testing.T) {
	t.Parallel()

	w := NewWidget()
	var seen []string
	w.SetListener(func(token string) { seen = append(seen, token) })

	w.OnChange("tok-1")
	assert.Equal(t, "tok-1", w.Token())
	assert.True(t, w.Solved())

	w.OnChange("")
	assert.Empty(t, w.Token())
	assert.False(t, w.Solved())

	assert.Equal(t, []string{"tok-1", ""}, seen)
	assert.Zero(t, w.Generation(), "expiry is not a reset")
}

func TestWidget_ResetClearsAndBumpsGeneration(t *testing.T) {
	t.Parallel()

	w := NewWidget()
	var cleared int
	w.SetListener(func(token string) {
		if token == "" {
			cleared++
		}
	})

	w.OnChange("tok")
	w.Reset()
	assert.Empty(t, w.Token())
	assert.Equal(t, uint64(1), w.Generation())

	w.Reset()
	assert.Equal(t, uint64(2), w.Generation())
	assert.Equal(t, 2, cleared)
}

func TestWidget_ListenerMayReadWidget(t *testing.T) {
	t.Parallel()

	w := NewWidget()
	var fromListener string
	w.SetListener(func(string) { fromListener = w.Token() })

	w.OnChange("abc")
	assert.Equal(t, "abc", fromListener)
}

func TestLookupProvider(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		want    Provider
		wantErr bool
	}{
		{"", ReCAPTCHA, false},
		{"recaptcha", ReCAPTCHA, false},
		{"hCaptcha", HCaptcha, false},
		{" turnstile ", Turnstile, false},
		{"friendlycaptcha", Provider{}, true},
	}

	for _, tt := range tests {
		t.Run("name="+tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := LookupProvider(tt.name)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProviderNames(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []string{"recaptcha", "hcaptcha", "turnstile"}, ProviderNames())
}
