package etcd_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.etcd.io/etcd/api/v3/mvccpb"
	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/dmitrymomot/featureflag/pkg/etcd"
	"github.com/dmitrymomot/featureflag/pkg/feature"
)

// mockKV overrides the calls the lookup makes; the embedded interface
// panics on anything else.
type mockKV struct {
	clientv3.KV
	mock.Mock
}

func (m *mockKV) Get(ctx context.Context, key string, _ ...clientv3.OpOption) (*clientv3.GetResponse, error) {
	args := m.Called(ctx, key)
	resp, _ := args.Get(0).(*clientv3.GetResponse)
	return resp, args.Error(1)
}

func (m *mockKV) Put(ctx context.Context, key, val string, _ ...clientv3.OpOption) (*clientv3.PutResponse, error) {
	args := m.Called(ctx, key, val)
	resp, _ := args.Get(0).(*clientv3.PutResponse)
	return resp, args.Error(1)
}

func (m *mockKV) Delete(ctx context.Context, key string, _ ...clientv3.OpOption) (*clientv3.DeleteResponse, error) {
	args := m.Called(ctx, key)
	resp, _ := args.Get(0).(*clientv3.DeleteResponse)
	return resp, args.Error(1)
}

var withDeadline = mock.MatchedBy(func(ctx context.Context) bool {
	_, ok := ctx.Deadline()
	return ok
})

func value(v string) *clientv3.GetResponse {
	return &clientv3.GetResponse{Kvs: []*mvccpb.KeyValue{{Key: []byte("k"), Value: []byte(v)}}}
}

func TestLookup_LookupPercentage(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tests := []struct {
		name      string
		resp      *clientv3.GetResponse
		err       error
		want      float64
		wantFound bool
		wantErr   error
	}{
		{name: "found", resp: value("0.5"), want: 0.5, wantFound: true},
		{name: "not found", resp: &clientv3.GetResponse{}},
		{name: "corrupt", resp: value("on"), wantErr: feature.ErrInvalidRecord},
		{name: "timeout", err: context.DeadlineExceeded, wantErr: feature.ErrBackendUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			kv := &mockKV{}
			kv.On("Get", withDeadline, "app_feature_flag/checkout").Return(tt.resp, tt.err).Once()

			lookup, err := etcd.NewLookup(kv, "app", 0)
			require.NoError(t, err)

			p, found, err := lookup.LookupPercentage(ctx, "checkout")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantFound, found)
			assert.Equal(t, tt.want, p)
			kv.AssertExpectations(t)
		})
	}
}

func TestLookup_Writes(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	kv := &mockKV{}
	kv.On("Put", withDeadline, "_feature_flag/checkout", "0.125").Return(&clientv3.PutResponse{}, nil).Once()
	kv.On("Delete", withDeadline, "_feature_flag/checkout").Return(&clientv3.DeleteResponse{}, nil).Once()
	kv.On("Delete", withDeadline, "_feature_flag/checkout").Return(nil, errors.New("no leader")).Once()

	lookup, err := etcd.NewLookup(kv, "", time.Second)
	require.NoError(t, err)

	ok, err := lookup.SetPercentage(ctx, "checkout", 0.125)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = lookup.SetPercentage(ctx, "checkout", 2)
	assert.ErrorIs(t, err, feature.ErrInvalidArgument)

	assert.NoError(t, lookup.DeletePercentage(ctx, "checkout"))
	assert.ErrorIs(t, lookup.DeletePercentage(ctx, "checkout"), feature.ErrBackendUnavailable)
	kv.AssertExpectations(t)
}

func TestLookup_RequestTimeout(t *testing.T) {
	t.Parallel()

	kv := &mockKV{}
	kv.On("Get", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		<-args.Get(0).(context.Context).Done()
	}).Return(nil, context.DeadlineExceeded).Once()

	lookup, err := etcd.NewLookup(kv, "", 10*time.Millisecond)
	require.NoError(t, err)

	start := time.Now()
	_, found, err := lookup.LookupPercentage(context.Background(), "checkout")
	assert.ErrorIs(t, err, feature.ErrBackendUnavailable)
	assert.False(t, found)
	assert.Less(t, time.Since(start), time.Second)
}

func TestHealthcheck(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	kv := &mockKV{}
	kv.On("Get", withDeadline, "health").Return(&clientv3.GetResponse{}, nil).Once()
	kv.On("Get", withDeadline, "health").Return(nil, errors.New("unavailable")).Once()

	check := etcd.Healthcheck(kv, time.Second)
	assert.NoError(t, check(ctx))
	assert.ErrorIs(t, check(ctx), etcd.ErrHealthcheckFailed)
}

func TestConstructors(t *testing.T) {
	t.Parallel()

	_, err := etcd.NewLookup(nil, "", 0)
	assert.ErrorIs(t, err, feature.ErrMissingConfiguration)

	_, err = etcd.Connect(context.Background(), etcd.Config{})
	assert.ErrorIs(t, err, etcd.ErrNoEndpoints)
}
