package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aussiebroadwan/owsgate/internal/gateway/domain"
	"github.com/aussiebroadwan/owsgate/internal/gateway/store"
	"github.com/aussiebroadwan/owsgate/internal/gateway/store/drivers/sqlite"
	"github.com/aussiebroadwan/owsgate/internal/gateway/tokens"
	"github.com/aussiebroadwan/owsgate/internal/gateway/tokens/mocks"
	"github.com/aussiebroadwan/owsgate/pkg/cryptox"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "service-pepper")
	if err != nil {
		panic(err)
	}
	cryptox.SetPepperPath(filepath.Join(dir, "pepper"))

	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()

	s, err := sqlite.NewStore("file::memory:?_pragma=foreign_keys(1)")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations())
	return s
}

func registerClient(t *testing.T, s store.Store) (domain.Client, string) {
	t.Helper()

	c, secret, err := (&ClientService{Store: s}).RegisterClient(context.Background(), "emu tester", "https://app.example.com/cb")
	require.NoError(t, err)
	return c, secret
}

func TestRegisterClient(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	svc := &ClientService{Store: s}

	c, secret, err := svc.RegisterClient(ctx, "  emu tester ", "https://app.example.com/cb")
	require.NoError(t, err)
	require.Len(t, c.ID, 32)
	require.Len(t, secret, 32)
	require.NotEqual(t, c.ID, secret)
	require.Equal(t, "emu tester", c.Name)
	require.Equal(t, []string{"compute", "register"}, c.Scopes)

	stored, err := s.Clients().GetClientByID(ctx, c.ID)
	require.NoError(t, err)
	require.NotContains(t, stored.SecretHash, secret)
	require.NoError(t, cryptox.VerifySecret(secret, stored.SecretHash))

	_, _, err = svc.RegisterClient(ctx, " ", "")
	require.ErrorIs(t, err, ErrInvalidName)

	list, err := svc.ListClients(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestDeleteClientRevokesTokens(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	c, secret := registerClient(t, s)

	strategy := tokens.NewRandom(s.Tokens(), time.Hour)
	ts := NewTokenService(s, strategy)

	issued, err := ts.ExchangeClientCredentials(ctx, GrantClientCredentials, c.ID, secret, nil)
	require.NoError(t, err)
	require.True(t, strategy.Validate(ctx, issued.AccessToken, []string{"compute"}))

	cs := &ClientService{Store: s}
	require.NoError(t, cs.DeleteClient(ctx, c.ID))
	require.False(t, strategy.Validate(ctx, issued.AccessToken, []string{"compute"}))

	require.ErrorIs(t, cs.DeleteClient(ctx, c.ID), ErrClientNotFound)
}

func TestExchangeClientCredentials(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	c, secret := registerClient(t, s)

	tests := []struct {
		name     string
		grant    string
		id       string
		secret   string
		scopes   []string
		wantErr  error
		wantScop []string
	}{
		{name: "all client scopes by default", grant: GrantClientCredentials, id: c.ID, secret: secret, wantScop: []string{"compute", "register"}},
		{name: "narrowed scopes", grant: GrantClientCredentials, id: c.ID, secret: secret, scopes: []string{"compute"}, wantScop: []string{"compute"}},
		{name: "unknown scope", grant: GrantClientCredentials, id: c.ID, secret: secret, scopes: []string{"compute", "admin"}, wantErr: ErrInvalidScope},
		{name: "wrong secret", grant: GrantClientCredentials, id: c.ID, secret: "nope", wantErr: ErrInvalidClient},
		{name: "unknown client", grant: GrantClientCredentials, id: "missing", secret: secret, wantErr: ErrInvalidClient},
		{name: "missing secret", grant: GrantClientCredentials, id: c.ID, wantErr: ErrInvalidClient},
		{name: "password grant", grant: "password", id: c.ID, secret: secret, wantErr: ErrUnsupportedGrant},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			strategy := mocks.NewMockStrategy(ctrl)
			strategy.EXPECT().Kind().Return(tokens.KindRandom).AnyTimes()

			if tt.wantErr == nil {
				exp := time.Now().Add(time.Hour)
				strategy.EXPECT().
					Generate(gomock.Any(), tokens.Request{ClientID: c.ID, Scopes: tt.wantScop}).
					Return(&domain.Token{AccessToken: "tok", TokenType: domain.TokenTypeBearer, ExpiresAt: &exp}, nil).
					Times(1)
			} else {
				strategy.EXPECT().Generate(gomock.Any(), gomock.Any()).Times(0)
			}

			issued, err := NewTokenService(s, strategy).ExchangeClientCredentials(ctx, tt.grant, tt.id, tt.secret, tt.scopes)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, "tok", issued.AccessToken)
			require.Equal(t, "Bearer", issued.TokenType)
			require.InDelta(t, 3600, issued.ExpiresIn, 2)
			require.Equal(t, tt.wantScop, issued.Scopes)
		})
	}
}

func TestExchangeClientCredentialsGenerateFailure(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	c, secret := registerClient(t, s)

	ctrl := gomock.NewController(t)
	strategy := mocks.NewMockStrategy(ctrl)
	strategy.EXPECT().Kind().Return(tokens.KindSigned).AnyTimes()
	boom := errors.New("sign failed")
	strategy.EXPECT().Generate(gomock.Any(), gomock.Any()).Return(nil, boom)

	_, err := NewTokenService(s, strategy).ExchangeClientCredentials(ctx, GrantClientCredentials, c.ID, secret, nil)
	require.ErrorIs(t, err, boom)
}

func TestGenerateToken(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	c, _ := registerClient(t, s)

	strategy := tokens.NewRandom(s.Tokens(), 0)
	ts := NewTokenService(s, strategy)

	issued, err := ts.GenerateToken(ctx, c.ID, []string{"compute"})
	require.NoError(t, err)
	require.Zero(t, issued.ExpiresIn, "ttl 0 never expires")
	require.True(t, strategy.Validate(ctx, issued.AccessToken, []string{"compute"}))

	_, err = ts.GenerateToken(ctx, "missing", nil)
	require.ErrorIs(t, err, ErrClientNotFound)

	_, err = ts.GenerateToken(ctx, c.ID, []string{"admin"})
	require.ErrorIs(t, err, ErrInvalidScope)
}

func TestServiceAdmin(t *testing.T) {
	ctx := context.Background()
	admin := &ServiceAdmin{Store: newTestStore(t)}

	got, err := admin.AddService(ctx, domain.Service{Name: " emu ", URL: "http://emu:5000/wps/", Verify: true})
	require.NoError(t, err)
	require.Equal(t, "emu", got.Name)
	require.Equal(t, "http://emu:5000/wps", got.URL)
	require.Equal(t, "wps", got.Type)
	require.True(t, got.Verify)

	_, err = admin.AddService(ctx, domain.Service{Name: "emu", URL: "https://emu.example.com", Type: "THREDDS"})
	require.NoError(t, err)
	got, err = admin.GetService(ctx, "emu")
	require.NoError(t, err)
	require.Equal(t, "https://emu.example.com", got.URL)
	require.Equal(t, "thredds", got.Type)
	require.False(t, got.Verify)

	for _, bad := range []domain.Service{
		{Name: "", URL: "http://x"},
		{Name: "a/b", URL: "http://x"},
		{Name: "rel", URL: "/wps"},
		{Name: "ftp", URL: "ftp://x/wps"},
	} {
		_, err := admin.AddService(ctx, bad)
		require.ErrorIs(t, err, ErrInvalidService, "%+v", bad)
	}

	_, err = admin.AddService(ctx, domain.Service{Name: "hummingbird", URL: "http://hb:5000/wps"})
	require.NoError(t, err)

	list, err := admin.ListServices(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)

	require.NoError(t, admin.RemoveService(ctx, "emu"))
	require.ErrorIs(t, admin.RemoveService(ctx, "emu"), ErrServiceNotFound)
	_, err = admin.GetService(ctx, "emu")
	require.ErrorIs(t, err, ErrServiceNotFound)

	require.NoError(t, admin.ClearServices(ctx))
	list, err = admin.ListServices(ctx)
	require.NoError(t, err)
	require.Empty(t, list)
}
