package dashboard

import (
	"bytes"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zulandar/segdash/internal/api"
	"github.com/zulandar/segdash/internal/upload"
)

const (
	modalCookie  = "segdash_modal"
	modalPrefix  = "modal:"
	modalTTL     = 30 * time.Minute
	maxUploadMem = 32 << 20
)

// modal is one open upload dialog. Each browser gets its own workflow,
// identified by a cookie and kept in the cache until closed or idle.
type modal struct {
	id   string
	wf   *upload.Workflow
	stop func()
}

// modalView is what the upload-modal template renders.
type modalView struct {
	ID     string
	State  upload.State
	Error  string
	Min    int
	Max    int
	Accept string
}

// openModal returns the caller's modal, creating one when needed.
func (a *app) openModal(c *gin.Context) (*modal, error) {
	if id, err := c.Cookie(modalCookie); err == nil && id != "" {
		if v, ok := a.cache.Get(modalPrefix + id); ok {
			m := v.(*modal)
			a.cache.Set(modalPrefix+id, m, modalTTL)
			return m, nil
		}
	}

	id := uuid.NewString()
	opts := a.upload
	opts.Service = a.api
	opts.Logger = a.log
	opts.Navigator = upload.NavigatorFunc(func(route string) {
		a.hub.publish(sseEvent{Event: "navigate", Data: map[string]string{"modal": id, "route": route}})
	})
	wf, err := upload.New(opts)
	if err != nil {
		return nil, err
	}

	states, stop := wf.Subscribe()
	go func() {
		for st := range states {
			evt := uploadEvent{Modal: id, Phase: st.Phase.String()}
			if st.Err != nil {
				evt.Error = api.Message(st.Err)
			}
			a.hub.publish(sseEvent{Event: "upload", Data: evt})
		}
	}()

	m := &modal{id: id, wf: wf, stop: stop}
	a.cache.Set(modalPrefix+id, m, modalTTL)
	c.SetCookie(modalCookie, id, int(modalTTL/time.Second), "/", "", false, true)
	return m, nil
}

// onEvicted releases a modal's workflow when it leaves the cache.
func (a *app) onEvicted(key string, v any) {
	if m, ok := v.(*modal); ok && strings.HasPrefix(key, modalPrefix) {
		m.wf.Close()
		m.stop()
	}
}

func newModalView(m *modal, err error) modalView {
	v := modalView{
		ID:     m.id,
		State:  m.wf.Snapshot(),
		Min:    upload.MinClusters,
		Max:    upload.MaxClusters,
		Accept: ".csv,.json,text/csv,application/json,application/vnd.ms-excel",
	}
	switch {
	case err != nil:
		v.Error = api.Message(err)
	case v.State.Err != nil:
		v.Error = api.Message(v.State.Err)
	}
	return v
}

func renderModal(c *gin.Context, status int, m *modal, err error) {
	c.HTML(status, "upload-modal", newModalView(m, err))
}

// statusFor maps a workflow error to an HTTP status.
func statusFor(err error) int {
	var verr *upload.ValidationError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, upload.ErrBusy), errors.Is(err, upload.ErrInvalidPhase), errors.Is(err, upload.ErrNoFile):
		return http.StatusConflict
	case errors.Is(err, upload.ErrClosed):
		return http.StatusGone
	}
	return http.StatusBadGateway
}

func handleUploadPage(a *app) gin.HandlerFunc {
	return func(c *gin.Context) {
		m, err := a.openModal(c)
		if err != nil {
			c.String(http.StatusInternalServerError, err.Error())
			return
		}
		data := pageData(a, c, "upload")
		data["modal"] = newModalView(m, nil)
		c.HTML(http.StatusOK, "layout.html", data)
	}
}

func handleUploadPartial(a *app) gin.HandlerFunc {
	return func(c *gin.Context) {
		m, err := a.openModal(c)
		if err != nil {
			c.String(http.StatusInternalServerError, err.Error())
			return
		}
		renderModal(c, http.StatusOK, m, nil)
	}
}

// handleUploadFile stages the posted file and uploads it. The request blocks
// until the backend answers; a second submission meanwhile gets 409.
func handleUploadFile(a *app) gin.HandlerFunc {
	return func(c *gin.Context) {
		m, err := a.openModal(c)
		if err != nil {
			c.String(http.StatusInternalServerError, err.Error())
			return
		}
		if m.wf.Snapshot().Phase == upload.Uploading {
			renderModal(c, http.StatusConflict, m, upload.ErrBusy)
			return
		}

		fh, err := c.FormFile("file")
		if err == nil {
			file, rerr := readFormFile(fh)
			if rerr != nil {
				renderModal(c, http.StatusBadRequest, m, rerr)
				return
			}
			if err := m.wf.Select(file); err != nil {
				renderModal(c, statusFor(err), m, err)
				return
			}
		}

		_, err = m.wf.StartUpload(c.Request.Context())
		if err != nil {
			if unauthorized(c, err) {
				return
			}
			renderModal(c, statusFor(err), m, err)
			return
		}
		a.cache.Delete(a.filesKey())
		renderModal(c, http.StatusOK, m, nil)
	}
}

// readFormFile buffers a multipart file so a failed upload can be retried
// without the browser sending it again.
func readFormFile(fh *multipart.FileHeader) (upload.File, error) {
	name, ct := fh.Filename, fh.Header.Get("Content-Type")
	f, err := fh.Open()
	if err != nil {
		return upload.File{}, err
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxUploadMem+1))
	if err != nil {
		return upload.File{}, err
	}
	if len(data) > maxUploadMem {
		return upload.File{}, &upload.ValidationError{Field: "file", Message: "file is larger than 32 MiB"}
	}
	if ct == "" || ct == "application/octet-stream" {
		if sniffed, err := upload.DetectContentType(name, bytes.NewReader(data)); err == nil {
			ct = sniffed
		}
	}
	return upload.BytesFile(name, ct, data), nil
}

// handleUploadCluster sets the cluster count and runs clustering.
func handleUploadCluster(a *app) gin.HandlerFunc {
	return func(c *gin.Context) {
		m, err := a.openModal(c)
		if err != nil {
			c.String(http.StatusInternalServerError, err.Error())
			return
		}
		if raw := strings.TrimSpace(c.PostForm("numClusters")); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				err = &upload.ValidationError{Field: "numClusters", Message: "must be a whole number"}
				renderModal(c, http.StatusUnprocessableEntity, m, err)
				return
			}
			if err := m.wf.SetClusterCount(n); err != nil {
				renderModal(c, statusFor(err), m, err)
				return
			}
		}
		if _, err := m.wf.StartClustering(c.Request.Context()); err != nil {
			if unauthorized(c, err) {
				return
			}
			renderModal(c, statusFor(err), m, err)
			return
		}
		a.log.Info("clustering finished", zap.String("modal", m.id))
		renderModal(c, http.StatusOK, m, nil)
	}
}

// handleUploadClose discards the modal. Any in-flight request is abandoned.
func handleUploadClose(a *app) gin.HandlerFunc {
	return func(c *gin.Context) {
		if id, err := c.Cookie(modalCookie); err == nil {
			a.cache.Delete(modalPrefix + id)
		}
		c.SetCookie(modalCookie, "", -1, "/", "", false, true)
		if isPartial(c) {
			c.Status(http.StatusNoContent)
			return
		}
		c.Redirect(http.StatusSeeOther, "/")
	}
}
