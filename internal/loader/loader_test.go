package loader

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pribylovaa/exivox-comments/internal/models"
	"github.com/pribylovaa/exivox-comments/internal/thread"
	"github.com/stretchr/testify/require"
)

func TestSeed_Shape(t *testing.T) {
	list, err := Seed{}.Load(context.Background(), "post:demo-post-1")
	require.NoError(t, err)

	require.Len(t, list, 3)
	require.Equal(t, 4, thread.CountAll(list))
	require.Equal(t, "post:demo-post-1", list[0].SubjectID)
	require.Equal(t, "1", list[0].Replies[0].ParentID)

	anon := list[1]
	require.True(t, anon.IsAnonymous)
	require.Equal(t, models.AnonymousAuthor, anon.Author)

	flagged := list[2]
	require.True(t, flagged.IsFlagged)
	require.Equal(t, models.ModerationWarning, flagged.ModerationStatus)
}

func TestSeed_FreshCopyEachCall(t *testing.T) {
	a := SeedComments("k")
	a[0].Replies[0].Content = "mutated"

	b := SeedComments("k")
	require.Equal(t, "Totally agree! The examples were super clear.", b[0].Replies[0].Content)
}

func TestDelayed_WaitsForTimer(t *testing.T) {
	fire := make(chan time.Time)
	var asked time.Duration

	d := Delayed{
		Source: Seed{},
		Delay:  time.Second,
		After: func(dur time.Duration) <-chan time.Time {
			asked = dur
			return fire
		},
	}

	res := make(chan []models.Comment, 1)
	go func() {
		list, _ := d.Load(context.Background(), "k")
		res <- list
	}()

	select {
	case <-res:
		t.Fatal("loaded before the timer fired")
	case <-time.After(20 * time.Millisecond):
	}

	fire <- time.Now()
	require.Len(t, <-res, 3)
	require.Equal(t, time.Second, asked)
}

func TestDelayed_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := Delayed{Delay: time.Hour, After: func(time.Duration) <-chan time.Time { return nil }}
	_, err := d.Load(ctx, "k")
	require.ErrorIs(t, err, context.Canceled)
}

func TestGo_DeliversResult(t *testing.T) {
	var got []models.Comment
	var gotErr error

	done := Go(context.Background(), Seed{}, "k", func(list []models.Comment, err error) {
		got, gotErr = list, err
	})
	<-done

	require.NoError(t, gotErr)
	require.Len(t, got, 3)
}

func TestGo_DeliversError(t *testing.T) {
	boom := errors.New("boom")
	var gotErr error

	l := Func(func(context.Context, string) ([]models.Comment, error) { return nil, boom })
	<-Go(context.Background(), l, "k", func(_ []models.Comment, err error) { gotErr = err })

	require.ErrorIs(t, gotErr, boom)
}

func TestGo_DiscardsResultAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	release := make(chan struct{})

	l := Func(func(context.Context, string) ([]models.Comment, error) {
		<-release
		return SeedComments("k"), nil
	})

	called := false
	done := Go(ctx, l, "k", func([]models.Comment, error) { called = true })

	cancel()
	close(release)
	<-done

	require.False(t, called)
}
