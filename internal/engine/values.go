package engine

import (
	"fmt"
	"time"

	"github.com/felixgeelhaar/sqlquest/internal/domain"
)

// toValue converts a scanned driver value into a result cell
func toValue(v any) domain.Value {
	switch x := v.(type) {
	case nil:
		return domain.Null()
	case int64:
		return domain.Integer(x)
	case float64:
		return domain.Real(x)
	case string:
		return domain.Text(x)
	case []byte:
		return domain.Blob(x)
	case bool:
		if x {
			return domain.Integer(1)
		}
		return domain.Integer(0)
	case time.Time:
		return domain.Text(x.Format(time.RFC3339))
	default:
		return domain.Text(fmt.Sprint(x))
	}
}
