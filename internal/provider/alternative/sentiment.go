package alternative

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/PaesslerAG/jsonpath"

	"lubixbot/internal/quote"
)

const (
	fngQuery  = "fear-and-greed"
	scorePath = "$.data[0].value"
	classPath = "$.data[0].value_classification"
)

// Sentiment returns the latest fear and greed reading.
func (c *Client) Sentiment(ctx context.Context) (quote.SentimentReading, error) {
	var doc any
	if err := c.getJSON(ctx, "/fng/", fngQuery, &doc); err != nil {
		return quote.SentimentReading{}, err
	}

	raw, err := first(scorePath, doc)
	if err != nil {
		return quote.SentimentReading{}, quote.Malformed(Name, fngQuery, err)
	}
	score, err := toScore(raw)
	if err != nil {
		return quote.SentimentReading{}, quote.Malformed(Name, fngQuery, err)
	}
	if score < 0 || score > 100 {
		return quote.SentimentReading{}, quote.Malformed(Name, fngQuery, fmt.Errorf("score %d out of range", score))
	}

	class, _ := first(classPath, doc)
	label, _ := class.(string)
	return quote.SentimentReading{Score: score, Classification: strings.TrimSpace(label)}, nil
}

// first evaluates path and keeps the first answer when jsonpath hands back a list.
func first(path string, doc any) (any, error) {
	v, err := jsonpath.Get(path, doc)
	if err != nil {
		return nil, fmt.Errorf("evaluating %q: %w", path, err)
	}
	if list, ok := v.([]any); ok {
		if len(list) == 0 {
			return nil, fmt.Errorf("evaluating %q: no match", path)
		}
		v = list[0]
	}
	return v, nil
}

func toScore(v any) (int, error) {
	switch x := v.(type) {
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(x))
		if err != nil {
			return 0, fmt.Errorf("parsing score %q: %w", x, err)
		}
		return n, nil
	case float64:
		if x != float64(int(x)) {
			return 0, fmt.Errorf("score %v is not an integer", x)
		}
		return int(x), nil
	case nil:
		return 0, errors.New("score missing")
	default:
		return 0, fmt.Errorf("score has unexpected type %T", v)
	}
}
