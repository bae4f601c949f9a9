package settings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntoContextRoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		settings *Run
	}{
		{name: "empty", settings: &Run{}},
		{name: "with values", settings: &Run{NoColor: true, Interactive: true, Locale: "fr"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := IntoContext(context.Background(), tt.settings)
			got, ok := FromContext(ctx)
			require.True(t, ok)
			assert.Same(t, tt.settings, got)
		})
	}
}

func TestFromContextMissing(t *testing.T) {
	got, ok := FromContext(context.Background())
	assert.False(t, ok)
	assert.Nil(t, got)

	got, ok = FromContext(context.WithValue(context.Background(), settingsContextKey, "wrong type"))
	assert.False(t, ok)
	assert.Nil(t, got)
}
