package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/nestegg-finance/backend/internal/models"
	"github.com/nestegg-finance/backend/internal/store"
	"github.com/rs/zerolog/log"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// SubscribePlans streams the plans of a user
//
//	@Summary		Subscribe to plans
//	@Description	Upgrades to a websocket. Every message is a PlanListResponse with all plans of the user. The first message is sent right away, the next ones whenever plans change.
//	@Tags			Plans
//	@Success		101
//	@Failure		400		{object}	httpError
//	@Param			user	query		string	true	"ID of the user"
//	@Router			/v1/plans/subscribe [get]
func (co Controller) SubscribePlans(c *gin.Context) {
	serveSnapshots(c, func(ctx context.Context, user string, send func(any)) (store.Unsubscribe, error) {
		return co.Engine.Registry.Subscribe(ctx, user, func(plans []models.Plan) {
			data := make([]Plan, 0, len(plans))
			for _, plan := range plans {
				data = append(data, newPlan(c, plan))
			}
			send(PlanListResponse{Data: data})
		})
	})
}

// SubscribeAllocations streams the allocations of a user
//
//	@Summary		Subscribe to allocations
//	@Description	Upgrades to a websocket. Every message is an AllocationListResponse with all allocations of the user, newest first.
//	@Tags			Allocations
//	@Success		101
//	@Failure		400		{object}	httpError
//	@Param			user	query		string	true	"ID of the user"
//	@Router			/v1/allocations/subscribe [get]
func (co Controller) SubscribeAllocations(c *gin.Context) {
	serveSnapshots(c, func(ctx context.Context, user string, send func(any)) (store.Unsubscribe, error) {
		return co.Engine.Ledger.Subscribe(ctx, user, func(allocations []models.Allocation) {
			data := make([]Allocation, 0, len(allocations))
			for _, allocation := range allocations {
				data = append(data, newAllocation(c, allocation))
			}
			send(AllocationListResponse{Data: data})
		})
	})
}

// serveSnapshots upgrades the connection and writes every snapshot passed to
// send as a JSON text message until the client goes away.
//
// Only the latest snapshot is kept for slow clients, older ones are dropped.
func serveSnapshots(c *gin.Context, subscribe func(ctx context.Context, user string, send func(any)) (store.Unsubscribe, error)) {
	var filter QueryUser
	if err := c.ShouldBindQuery(&filter); err != nil || filter.User == "" {
		c.JSON(http.StatusBadRequest, httpError{Error: errUserNotSet.Error()})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	snapshots := make(chan []byte, 1)
	send := func(v any) {
		payload, err := json.Marshal(v)
		if err != nil {
			log.Error().Str("request-id", requestid.Get(c)).Err(err).Msg("Could not encode snapshot")
			return
		}

		for {
			select {
			case snapshots <- payload:
				return
			case <-ctx.Done():
				return
			default:
			}

			select {
			case <-snapshots:
			default:
			}
		}
	}

	unsubscribe, err := subscribe(ctx, filter.User, send)
	if err != nil {
		log.Error().Str("request-id", requestid.Get(c)).Err(err).Msg("Could not subscribe")
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseInternalServerErr, models.ErrGeneral.Error()), time.Now().Add(writeWait))
		return
	}
	defer unsubscribe()

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()

		for {
			select {
			case payload := <-snapshots:
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
					cancel()
					return
				}
			case <-ticker.C:
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					cancel()
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	// Messages from the client are discarded, reading only processes
	// control frames and notices the client going away.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
