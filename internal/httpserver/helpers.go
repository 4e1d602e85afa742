package httpserver

import (
	"context"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"

	"github.com/gabriel-vasile/mimetype"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/util"
	middleware "github.com/Skotchmaster/storefront/pkg/middleware/auth"
	"github.com/Skotchmaster/storefront/pkg/session"
)

const (
	sessionCartKey   = "panier"
	sessionOrdersKey = "commandes"

	flashSuccess = "success"
	flashWarning = "warning"
	flashError   = "danger"
)

func loadCart(sess *session.Session) *service.Cart {
	var cart service.Cart
	sess.Get(sessionCartKey, &cart)
	return &cart
}

func saveCart(sess *session.Session, cart *service.Cart) error {
	if cart.IsEmpty() {
		sess.Delete(sessionCartKey)
		return nil
	}
	return sess.Set(sessionCartKey, cart)
}

func flash(c echo.Context, kind, msg string) {
	session.FromContext(c).Flash(kind, msg)
}

func redirect(c echo.Context, to string) error {
	return c.Redirect(http.StatusSeeOther, to)
}

// paramID parses a positive numeric route parameter. Anything else is a 404, the same as an
// unknown id.
func paramID(c echo.Context, name string) (uint, error) {
	id, ok := util.ParseUint(c.Param(name))
	if !ok {
		return 0, echo.NewHTTPError(http.StatusNotFound)
	}
	return id, nil
}

type userLoader interface {
	GetUser(ctx context.Context, id uint) (*models.User, error)
}

// currentUser returns the logged-in visitor, or nil.
func currentUser(c echo.Context, users userLoader) *models.User {
	id, ok := middleware.UserID(c)
	if !ok {
		return nil
	}
	u, err := users.GetUser(c.Request().Context(), id)
	if err != nil {
		return nil
	}
	return u
}

// readUploads opens the files of a multipart field and sniffs their real type. The caller
// closes the returned files once the uploads are consumed.
func readUploads(c echo.Context, field string) ([]service.Upload, func(), error) {
	var files []multipart.File
	closeAll := func() {
		for _, f := range files {
			f.Close()
		}
	}

	form, err := c.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, closeAll, nil
		}
		return nil, closeAll, err
	}

	var uploads []service.Upload
	for _, fh := range form.File[field] {
		if fh.Filename == "" && fh.Size == 0 {
			continue
		}
		f, err := fh.Open()
		if err != nil {
			closeAll()
			return nil, func() {}, err
		}
		files = append(files, f)

		mt, err := mimetype.DetectReader(f)
		if err != nil {
			closeAll()
			return nil, func() {}, err
		}
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			closeAll()
			return nil, func() {}, err
		}
		ct, _, err := mime.ParseMediaType(mt.String())
		if err != nil {
			ct = mt.String()
		}
		uploads = append(uploads, service.Upload{
			Filename:    fh.Filename,
			ContentType: ct,
			Size:        fh.Size,
			Body:        f,
		})
	}
	return uploads, closeAll, nil
}
