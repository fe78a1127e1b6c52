package postal_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kikite/backend-order/internal/common"
	"github.com/kikite/backend-order/internal/postal"
)

type stubLocalStore struct {
	byCode   map[string][]postal.Address
	inserted []postal.Address
	findErr  error
}

func (s *stubLocalStore) FindByCode(_ context.Context, code string) ([]postal.Address, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	return s.byCode[code], nil
}

func (s *stubLocalStore) InsertBatch(_ context.Context, addresses []postal.Address) (int64, error) {
	s.inserted = append(s.inserted, addresses...)
	return int64(len(addresses)), nil
}

type stubRemote struct {
	addresses []postal.Address
	err       error
	calls     int
}

func (s *stubRemote) Lookup(context.Context, string) ([]postal.Address, error) {
	s.calls++
	return s.addresses, s.err
}

func TestLookupPrefersLocalTable(t *testing.T) {
	local := &stubLocalStore{byCode: map[string][]postal.Address{
		"1000001": {{PostalCode: "1000001", Prefecture: "東京都", City: "千代田区", Town: "千代田"}},
	}}
	remote := &stubRemote{}
	r := &postal.Resolver{Store: local, Zipcloud: remote}

	got, err := r.Lookup(context.Background(), "1000001")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Zero(t, remote.calls)
}

func TestLookupFallsBackToRemoteAndWritesBack(t *testing.T) {
	local := &stubLocalStore{byCode: map[string][]postal.Address{}}
	remote := &stubRemote{addresses: []postal.Address{
		{PostalCode: "5420076", Prefecture: "大阪府", City: "大阪市中央区", Town: "難波"},
	}}
	r := &postal.Resolver{Store: local, Zipcloud: remote}

	got, err := r.Lookup(context.Background(), "5420076")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, 1, remote.calls)
	require.Equal(t, remote.addresses, local.inserted)
}

func TestLookupRejectsMalformedCode(t *testing.T) {
	r := &postal.Resolver{Store: &stubLocalStore{}, Zipcloud: &stubRemote{}}

	for _, code := range []string{"", "123456", "12345678", "100-0001", "abcdefg"} {
		_, err := r.Lookup(context.Background(), code)
		require.Error(t, err, code)
		appErr, ok := common.AsAppError(err)
		require.True(t, ok)
		require.Equal(t, "VALIDATION_ERROR", appErr.Code)
	}
}

func TestLookupMapsRemoteFailure(t *testing.T) {
	local := &stubLocalStore{byCode: map[string][]postal.Address{}}
	remote := &stubRemote{err: errors.New("upstream down")}
	r := &postal.Resolver{Store: local, Zipcloud: remote}

	_, err := r.Lookup(context.Background(), "1000001")
	require.Error(t, err)
	appErr, ok := common.AsAppError(err)
	require.True(t, ok)
	require.Equal(t, "POSTAL_LOOKUP_FAILED", appErr.Code)
	require.Equal(t, http.StatusBadGateway, appErr.HTTPStatus)
}

func TestLookupMapsRemoteMiss(t *testing.T) {
	local := &stubLocalStore{byCode: map[string][]postal.Address{}}
	r := &postal.Resolver{Store: local, Zipcloud: &stubRemote{}}

	_, err := r.Lookup(context.Background(), "9999999")
	require.Error(t, err)
	appErr, ok := common.AsAppError(err)
	require.True(t, ok)
	require.Equal(t, "POSTAL_NOT_FOUND", appErr.Code)
}
