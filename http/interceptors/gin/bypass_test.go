package gin

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBypassPath(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/static/app.js", true},
		{"/static/app.css", true},
		{"/img/logo.png", true},
		{"/img/photo.jpg", true},
		{"/img/photo.jpeg", true},
		{"/img/anim.gif", true},
		{"/img/icon.svg", true},
		{"/favicon.ico", true},
		{"/fonts/inter.woff2", true},
		{"/IMG/LOGO.PNG", true},
		{"/static/App.Js", true},
		{"/api/orders", false},
		{"/", false},
		{"/js", false},
		{"/report.json", false},
		{"/download.jpg.html", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			require.Equal(t, tt.want, bypassPath(tt.path))
		})
	}
}
