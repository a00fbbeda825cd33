package export

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
)

// writeJSON renders conversations as a JSON array, emitting each element as
// it streams by rather than accumulating the archive.
func writeJSON(ctx context.Context, w io.Writer, src Source) (Summary, error) {
	var sum Summary
	bw := bufio.NewWriter(w)
	bw.WriteString("[")

	for src.Next() {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		conv := src.Conversation()
		data, err := json.MarshalIndent(conv, "  ", "  ")
		if err != nil {
			return sum, err
		}
		if sum.Conversations > 0 {
			bw.WriteString(",")
		}
		bw.WriteString("\n  ")
		bw.Write(data)
		sum.Conversations++
		sum.Messages += conv.MessageCount()
	}
	if err := src.Err(); err != nil {
		return sum, err
	}

	if sum.Conversations > 0 {
		bw.WriteString("\n")
	}
	bw.WriteString("]\n")
	return sum, bw.Flush()
}
