package dto

import "github.com/polkiloo/dispatchboard/internal/board"

type ColumnResponse struct {
	Key    string          `json:"key"`
	Orders []OrderResponse `json:"orders"`
}

type CardResponse struct {
	Order     OrderResponse `json:"order"`
	Draggable bool          `json:"draggable"`
}

type UnassignedResponse struct {
	Ready   []CardResponse `json:"ready"`
	Pending []CardResponse `json:"pending"`
}

// BoardResponse is the JSON shape of a board view. Only the sections that
// belong to the board kind are set.
type BoardResponse struct {
	Kind       string              `json:"kind"`
	Columns    []ColumnResponse    `json:"columns,omitempty"`
	Unassigned *UnassignedResponse `json:"unassigned,omitempty"`
	Pickup     []ColumnResponse    `json:"pickup,omitempty"`
	Schedule   []ColumnResponse    `json:"schedule,omitempty"`
	Orders     []OrderResponse     `json:"orders"`
}

func ToBoardResponse(v board.View) BoardResponse {
	r := BoardResponse{Kind: string(v.Kind)}
	for _, c := range v.Columns {
		r.Columns = append(r.Columns, ColumnResponse{Key: string(c.Key), Orders: ToOrderResponses(c.Orders)})
	}
	for _, c := range v.Pickup {
		r.Pickup = append(r.Pickup, ColumnResponse{Key: string(c.Bucket), Orders: ToOrderResponses(c.Orders)})
	}
	for _, c := range v.Schedule {
		r.Schedule = append(r.Schedule, ColumnResponse{Key: string(c.Column), Orders: ToOrderResponses(c.Orders)})
	}
	if v.Unassigned != nil {
		r.Unassigned = &UnassignedResponse{Ready: toCards(v.Unassigned.Ready), Pending: toCards(v.Unassigned.Pending)}
	}
	switch v.Kind {
	case board.KindDispatchDriver, board.KindDispatchCompleted, board.KindDriverPortal, board.KindDriverCompleted:
		r.Orders = ToOrderResponses(v.Orders)
	}
	return r
}

func toCards(cards []board.Card) []CardResponse {
	out := make([]CardResponse, 0, len(cards))
	for _, c := range cards {
		out = append(out, CardResponse{Order: ToOrderResponse(c.Order), Draggable: c.Draggable})
	}
	return out
}

// CountResponse is one bucket of a summary.
type CountResponse struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

type SummaryResponse struct {
	Total     int             `json:"total"`
	Completed int             `json:"completed"`
	ByType    []CountResponse `json:"byType"`
	ByStage   []CountResponse `json:"byStage"`
}

func ToCounts(counts []board.Count) []CountResponse {
	out := make([]CountResponse, 0, len(counts))
	for _, c := range counts {
		out = append(out, CountResponse{Key: c.Key, Count: c.Count})
	}
	return out
}
