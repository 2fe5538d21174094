package secretstore_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/systmms/relinq/pkg/secretstore"
)

func TestErrorMessages(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "not found",
			err:  secretstore.NotFoundError{Store: "keyvault", Name: "db-password"},
			want: `keyvault: "db-password" not found`,
		},
		{
			name: "auth",
			err:  secretstore.AuthError{Store: "keyvault", Message: "token expired"},
			want: "keyvault: authentication failed: token expired",
		},
		{
			name: "unsupported",
			err:  secretstore.UnsupportedError{Store: "secretsmanager", Operation: "certificate retrieval"},
			want: "secretsmanager: certificate retrieval is not supported",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}
