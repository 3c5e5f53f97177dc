package session_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"

	"github.com/movetics/transflow/errs"
	"github.com/movetics/transflow/session"
	"github.com/movetics/transflow/types"
)

func redisStore(t *testing.T) *session.RedisStore {
	addr := os.Getenv("TRANSFLOW_REDIS_ADDR")
	if addr == "" {
		t.Skip("set TRANSFLOW_REDIS_ADDR to run redis store tests")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not reachable: %v", err)
	}
	return session.NewRedisStore(client, session.WithSessionTTL(time.Minute))
}

func TestRedisStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := redisStore(t)
	id := uuid.NewString()

	sess, err := store.Create(ctx, id, "u1")
	gt.NoError(t, err)
	sess.Append(types.RoleUser, "hola")
	_, err = sess.ApplyPartial(map[string]any{"nombre_solicitante": "Ana"})
	gt.NoError(t, err)
	gt.NoError(t, store.Save(ctx, sess))

	loaded, err := store.Get(ctx, id)
	gt.NoError(t, err)
	gt.V(t, loaded.SenderID).Equal("u1")
	gt.V(t, *loaded.Request.NombreSolicitante).Equal("Ana")
	gt.A(t, loaded.Messages).Length(1)
	gt.V(t, loaded.Status).Equal(types.StatusCollecting)

	gt.NoError(t, store.Delete(ctx, id))
	_, err = store.Get(ctx, id)
	gt.True(t, goerr.HasTag(err, errs.TagSessionNotFound))
}

func TestRedisStoreAcquire(t *testing.T) {
	ctx := context.Background()
	store := redisStore(t)
	id := uuid.NewString()

	release, err := store.Acquire(ctx, id)
	gt.NoError(t, err)

	_, err = store.Acquire(ctx, id)
	gt.Error(t, err)
	gt.True(t, goerr.HasTag(err, errs.TagSessionBusy))

	release()
	release2, err := store.Acquire(ctx, id)
	gt.NoError(t, err)
	release2()
}

func TestRedisStoreResume(t *testing.T) {
	ctx := context.Background()
	store := redisStore(t)
	id := uuid.NewString()

	created, err := store.Resume(ctx, id, "u1")
	gt.NoError(t, err)
	defer func() {
		_ = store.Delete(ctx, id)
	}()

	again, err := store.Resume(ctx, id, "u1")
	gt.NoError(t, err)
	gt.V(t, again.CreatedAt.Unix()).Equal(created.CreatedAt.Unix())
}
