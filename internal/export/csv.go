package export

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"time"
)

var csvHeader = []string{
	"conversation_id", "conversation_title", "message_index",
	"message_id", "parent_id", "role", "timestamp", "content",
}

// writeCSV renders one row per message, with the owning conversation's
// identity denormalized onto every row.
func writeCSV(ctx context.Context, w io.Writer, src Source) (Summary, error) {
	var sum Summary
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return sum, err
	}

	for src.Next() {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		conv := src.Conversation()
		for i := range conv.Messages {
			msg := &conv.Messages[i]
			parent := ""
			if msg.ParentID != nil {
				parent = *msg.ParentID
			}
			row := []string{
				conv.ID,
				conv.Title,
				strconv.Itoa(i),
				msg.ID,
				parent,
				string(msg.Role),
				msg.Timestamp.Format(time.RFC3339),
				msg.Content,
			}
			if err := cw.Write(row); err != nil {
				return sum, err
			}
		}
		sum.Conversations++
		sum.Messages += conv.MessageCount()
	}
	if err := src.Err(); err != nil {
		return sum, err
	}

	cw.Flush()
	return sum, cw.Error()
}
