package handler // handler defines http handlers

import (
    "errors"
    "log"
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/ticketly/ticket-booking/internal/model"
    "github.com/ticketly/ticket-booking/internal/repository"
)

// getUser extracts the caller identity placed in the context by the
// JWT middleware.  The sub claim arrives as whatever type the JSON
// decoder produced, so several numeric encodings are accepted.  The
// admin flag derives from the role claim; the services receive the
// authorization decision rather than re-deriving it.
func getUser(c echo.Context) (model.User, error) {
    var u model.User
    switch t := c.Get("user_id").(type) {
    case uint64:
        u.ID = t
    case int64:
        u.ID = uint64(t)
    case float64:
        u.ID = uint64(t)
    case string:
        n, err := strconv.ParseUint(t, 10, 64)
        if err != nil {
            return u, errors.New("invalid user id in token")
        }
        u.ID = n
    default:
        return u, errors.New("missing user id in token")
    }
    if role, ok := c.Get("role").(string); ok {
        u.IsAdmin = role == "admin"
    }
    return u, nil
}

// respondError maps the service error taxonomy onto HTTP responses.
// Unknown errors are logged and collapsed into a generic 500 so
// internals never leak to clients.
func respondError(c echo.Context, err error) error {
    switch {
    case errors.Is(err, repository.ErrEventNotFound),
        errors.Is(err, repository.ErrLockNotFound),
        errors.Is(err, repository.ErrBookingNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
    case errors.Is(err, repository.ErrForbidden):
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    case errors.Is(err, repository.ErrConflict):
        return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
    case errors.Is(err, repository.ErrEventNotActive),
        errors.Is(err, repository.ErrInsufficientSeats),
        errors.Is(err, repository.ErrLockNotActive),
        errors.Is(err, repository.ErrLockExpired),
        errors.Is(err, repository.ErrQuantityMismatch),
        errors.Is(err, repository.ErrInvalidQuantity),
        errors.Is(err, repository.ErrEventMismatch),
        errors.Is(err, repository.ErrBookingCancelled),
        errors.Is(err, repository.ErrInvalidStatus):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    default:
        log.Printf("handler: %s %s failed: %v", c.Request().Method, c.Path(), err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
    }
}
