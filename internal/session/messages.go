package session

import (
	"gmfeed/internal/feed"
	"gmfeed/internal/model"
	"gmfeed/internal/submit"
)

type message interface{}

type historyLoaded struct {
	gen     uint64
	history feed.History
	err     error
}

type liveEvent struct {
	gen   uint64
	event model.GreetingEvent
}

type liveStopped struct {
	gen uint64
	err error
}

type submitRequest struct {
	reply chan<- error
}

type dispatchUpdate struct {
	seq    uint64
	update submit.Update
}

type revertDue struct {
	attempt uint64
}

type reloadRequest struct{}

type snapshotRequest struct {
	reply chan<- View
}
