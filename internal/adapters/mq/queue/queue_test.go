package queue_test

import (
	"context"
	"testing"
	"time"

	queue "github.com/okian/vitae/internal/adapters/mq/queue"
	"github.com/smartystreets/goconvey/convey"
)

func TestInMemoryQueue(t *testing.T) {
	convey.Convey("Given a bounded in-memory queue", t, func() {
		ctx := context.Background()
		q := queue.NewInMemoryQueue(queue.WithCapacity(2))

		convey.Convey("When submissions fit within capacity", func() {
			ok := q.Enqueue(ctx, queue.Submission{JobID: "job-1", Filename: "a.pdf", CVText: "cv a"})
			convey.So(ok, convey.ShouldBeTrue)
			ok = q.Enqueue(ctx, queue.Submission{JobID: "job-2", Filename: "b.pdf", CVText: "cv b"})
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(q.Len(ctx), convey.ShouldEqual, 2)

			convey.Convey("Then they dequeue in FIFO order", func() {
				sub := <-q.Dequeue(ctx)
				convey.So(sub.JobID, convey.ShouldEqual, "job-1")
				sub = <-q.Dequeue(ctx)
				convey.So(sub.JobID, convey.ShouldEqual, "job-2")
				convey.So(q.Len(ctx), convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When the queue is full", func() {
			convey.So(q.Enqueue(ctx, queue.Submission{JobID: "job-1"}), convey.ShouldBeTrue)
			convey.So(q.Enqueue(ctx, queue.Submission{JobID: "job-2"}), convey.ShouldBeTrue)

			convey.Convey("Then further enqueues report backpressure without blocking", func() {
				done := make(chan bool, 1)
				go func() {
					done <- q.Enqueue(ctx, queue.Submission{JobID: "job-3"})
				}()

				select {
				case ok := <-done:
					convey.So(ok, convey.ShouldBeFalse)
				case <-time.After(time.Second):
					t.Fatal("enqueue blocked on a full queue")
				}
			})
		})

		convey.Convey("When the queue is closed", func() {
			convey.So(q.Enqueue(ctx, queue.Submission{JobID: "job-1"}), convey.ShouldBeTrue)
			convey.So(q.Close(), convey.ShouldBeNil)

			convey.Convey("Then it reports closed and rejects new submissions", func() {
				convey.So(q.IsClosed(), convey.ShouldBeTrue)
				convey.So(q.Enqueue(ctx, queue.Submission{JobID: "job-2"}), convey.ShouldBeFalse)
			})

			convey.Convey("Then buffered submissions drain before the channel closes", func() {
				sub, ok := <-q.Dequeue(ctx)
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(sub.JobID, convey.ShouldEqual, "job-1")

				_, ok = <-q.Dequeue(ctx)
				convey.So(ok, convey.ShouldBeFalse)
			})

			convey.Convey("Then closing twice reports an error", func() {
				convey.So(q.Close(), convey.ShouldEqual, queue.ErrClosed)
			})
		})
	})
}
