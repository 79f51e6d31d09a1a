package dashboard

import (
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/zulandar/segdash/internal/api"
	"github.com/zulandar/segdash/internal/export"
	"github.com/zulandar/segdash/internal/models"
)

// registerRoutes sets up all dashboard routes on the Gin router.
func registerRoutes(router *gin.Engine, a *app) {
	// Embedded static assets (served from assets/ subdir of the embed.FS).
	staticFS, _ := fs.Sub(assetsFS, "assets")
	router.StaticFS("/static", http.FS(staticFS))

	router.GET("/login", handleLoginPage(a))
	router.POST("/login", handleLogin(a))
	router.POST("/logout", handleLogout(a))
	router.GET("/api/events", handleSSE(a))

	authed := router.Group("/", requireSession(a))

	// Pages render a loading shell; app.js fetches the fragment.
	authed.GET("/", handlePage(a, "dashboard"))
	authed.GET("/segments", handlePage(a, "segments"))
	authed.GET("/insights", handlePage(a, "insights"))
	authed.GET("/customers", handlePage(a, "customers"))
	authed.GET("/customers/:id", handleCustomerPage(a))
	authed.GET("/predict", handlePage(a, "predict"))
	authed.GET("/reports", handlePage(a, "reports"))

	authed.GET("/partials/dashboard", handleDashboardPartial(a))
	authed.GET("/partials/segments", handleSegmentsPartial(a))
	authed.GET("/partials/insights", handleInsightsPartial(a))
	authed.GET("/partials/customers", handleCustomersPartial(a))
	authed.GET("/partials/customers/:id", handleCustomerPartial(a))

	authed.POST("/predict", handlePredict(a))
	authed.POST("/reports/generate", handleGenerateReport(a))
	authed.GET("/reports/:id/download", handleDownloadReport(a))
	authed.GET("/export/:kind", handleExport(a))

	authed.GET("/upload", handleUploadPage(a))
	authed.GET("/partials/upload", handleUploadPartial(a))
	authed.POST("/upload/file", handleUploadFile(a))
	authed.POST("/upload/cluster", handleUploadCluster(a))
	authed.POST("/upload/close", handleUploadClose(a))
}

// pageData is shared by every full page.
func pageData(a *app, c *gin.Context, page string) gin.H {
	partial := "/partials/" + page
	if q := c.Request.URL.RawQuery; q != "" {
		partial += "?" + q
	}
	return gin.H{
		"page":     page,
		"partial":  partial,
		"files":    a.files(c.Request.Context()),
		"fileName": c.Query("fileName"),
		"query":    c.Request.URL.Query(),
		"userID":   a.store.Current().UserID,
		"loading":  fragment{State: StateLoading},
	}
}

func handlePage(a *app, page string) gin.HandlerFunc {
	return func(c *gin.Context) {
		data := pageData(a, c, page)
		if page == "predict" {
			data["fields"] = models.PredictOptionalFields
		}
		c.HTML(http.StatusOK, "layout.html", data)
	}
}

func handleCustomerPage(a *app) gin.HandlerFunc {
	return func(c *gin.Context) {
		data := pageData(a, c, "customer")
		data["partial"] = "/partials/customers/" + c.Param("id")
		c.HTML(http.StatusOK, "layout.html", data)
	}
}

// renderFragment writes one of the four view states. A 401 has already been
// turned into a redirect by the time it gets here.
func renderFragment(c *gin.Context, name string, f fragment) {
	status := http.StatusOK
	if f.State == StateError {
		status = http.StatusBadGateway
	}
	if f.Retry == "" {
		f.Retry = c.Request.URL.RequestURI()
	}
	c.HTML(status, name, f)
}

// loadFragment turns a loader result into a fragment.
func loadFragment(c *gin.Context, name string, data any, empty bool, err error) {
	switch {
	case err != nil:
		if unauthorized(c, err) {
			return
		}
		renderFragment(c, name, fragment{State: StateError, Error: api.Message(err)})
	case empty:
		renderFragment(c, name, fragment{State: StateEmpty})
	default:
		renderFragment(c, name, fragment{State: StateReady, Data: data})
	}
}

func handleDashboardPartial(a *app) gin.HandlerFunc {
	return func(c *gin.Context) {
		d, err := a.api.Dashboard(c.Request.Context(), c.Query("fileName"))
		if err != nil {
			loadFragment(c, "partial-dashboard", nil, false, err)
			return
		}
		loadFragment(c, "partial-dashboard", newDashboardView(d), d.TotalCustomers == 0, nil)
	}
}

func handleSegmentsPartial(a *app) gin.HandlerFunc {
	return func(c *gin.Context) {
		segs, err := a.api.Segments(c.Request.Context(), c.Query("fileName"))
		loadFragment(c, "partial-segments", segs, len(segs) == 0, err)
	}
}

func handleInsightsPartial(a *app) gin.HandlerFunc {
	return func(c *gin.Context) {
		ins, err := a.api.Insights(c.Request.Context(), c.Query("fileName"))
		loadFragment(c, "partial-insights", ins, len(ins) == 0, err)
	}
}

func handleCustomersPartial(a *app) gin.HandlerFunc {
	return func(c *gin.Context) {
		f := models.CustomerFilter{
			MaritalStatus: strings.TrimSpace(c.Query("maritalStatus")),
			FileName:      c.Query("fileName"),
		}
		if s := strings.TrimSpace(c.Query("segment")); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 0 {
				c.HTML(http.StatusBadRequest, "partial-customers", fragment{
					State: StateError,
					Error: fmt.Sprintf("Segment %q is not a valid segment number", s),
					Retry: "/partials/customers",
				})
				return
			}
			f.Segment = &n
		}
		cs, err := a.api.Customers(c.Request.Context(), f)
		loadFragment(c, "partial-customers", cs, len(cs) == 0, err)
	}
}

func handleCustomerPartial(a *app) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil || id <= 0 {
			c.HTML(http.StatusNotFound, "partial-customer", fragment{
				State: StateError,
				Error: "Customer not found",
				Retry: "/customers",
			})
			return
		}
		cust, err := a.api.Customer(c.Request.Context(), id)
		loadFragment(c, "partial-customer", cust, false, err)
	}
}

func handlePredict(a *app) gin.HandlerFunc {
	return func(c *gin.Context) {
		req, verr := parsePredictForm(c)
		if verr != "" {
			c.HTML(http.StatusUnprocessableEntity, "partial-prediction", fragment{State: StateError, Error: verr})
			return
		}
		p, err := a.api.Predict(c.Request.Context(), req)
		if err != nil {
			if unauthorized(c, err) {
				return
			}
			c.HTML(http.StatusBadGateway, "partial-prediction", fragment{State: StateError, Error: api.Message(err)})
			return
		}
		c.HTML(http.StatusOK, "partial-prediction", fragment{State: StateReady, Data: p})
	}
}

// parsePredictForm reads income (required) and any optional numeric fields.
// It returns a user-facing message on invalid input.
func parsePredictForm(c *gin.Context) (models.PredictRequest, string) {
	var req models.PredictRequest
	income, err := strconv.ParseFloat(strings.TrimSpace(c.PostForm("income")), 64)
	if err != nil || income < 0 {
		return req, "Income is required and must be a non-negative number"
	}
	req.Income = income
	for _, name := range models.PredictOptionalFields {
		raw := strings.TrimSpace(c.PostForm(name))
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return req, fmt.Sprintf("%s must be a number", name)
		}
		req.SetOptional(name, v)
	}
	return req, ""
}

func handleGenerateReport(a *app) gin.HandlerFunc {
	return func(c *gin.Context) {
		rt, err := models.ParseReportType(c.DefaultPostForm("reportType", string(models.ReportFull)))
		if err != nil {
			c.HTML(http.StatusUnprocessableEntity, "partial-report", fragment{State: StateError, Error: err.Error()})
			return
		}
		rep, err := a.api.GenerateReport(c.Request.Context(), rt)
		if err != nil {
			if unauthorized(c, err) {
				return
			}
			c.HTML(http.StatusBadGateway, "partial-report", fragment{State: StateError, Error: api.Message(err)})
			return
		}
		a.log.Info("report generated", zap.String("report_id", rep.ReportID), zap.String("type", string(rt)))
		c.HTML(http.StatusOK, "partial-report", fragment{State: StateReady, Data: rep})
	}
}

func handleDownloadReport(a *app) gin.HandlerFunc {
	return func(c *gin.Context) {
		d, err := a.api.DownloadReport(c.Request.Context(), c.Param("id"))
		if err != nil {
			if unauthorized(c, err) {
				return
			}
			c.String(http.StatusBadGateway, api.Message(err))
			return
		}
		defer d.Body.Close()

		name := d.FileName
		if name == "" {
			name = "report-" + c.Param("id") + ".pdf"
		}
		ct := d.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
		c.DataFromReader(http.StatusOK, d.Size, ct, d.Body, nil)
	}
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// handleExport streams customers or segments of the selected file as xlsx.
func handleExport(a *app) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		fileName := c.Query("fileName")
		var write func(io.Writer) error
		switch c.Param("kind") {
		case "customers":
			cs, err := a.api.Customers(ctx, models.CustomerFilter{FileName: fileName})
			if err != nil {
				if unauthorized(c, err) {
					return
				}
				c.String(http.StatusBadGateway, api.Message(err))
				return
			}
			write = func(w io.Writer) error { return export.Customers(w, cs) }
		case "segments":
			segs, err := a.api.Segments(ctx, fileName)
			if err != nil {
				if unauthorized(c, err) {
					return
				}
				c.String(http.StatusBadGateway, api.Message(err))
				return
			}
			write = func(w io.Writer) error { return export.Segments(w, segs) }
		default:
			c.String(http.StatusNotFound, "unknown export %q", c.Param("kind"))
			return
		}

		c.Header("Content-Type", xlsxContentType)
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", c.Param("kind")+".xlsx"))
		c.Status(http.StatusOK)
		if err := write(c.Writer); err != nil {
			a.log.Error("export failed", zap.String("kind", c.Param("kind")), zap.Error(err))
		}
	}
}

func handleLoginPage(a *app) gin.HandlerFunc {
	return func(c *gin.Context) {
		if a.store.IsAuthenticated() {
			c.Redirect(http.StatusSeeOther, "/")
			return
		}
		c.HTML(http.StatusOK, "layout.html", gin.H{
			"page": "login",
			"next": safeNext(c.Query("next")),
		})
	}
}

// handleLogin signs in. Rejected credentials and an unreachable backend get
// different messages.
func handleLogin(a *app) gin.HandlerFunc {
	return func(c *gin.Context) {
		email := strings.TrimSpace(c.PostForm("email"))
		password := c.PostForm("password")
		next := safeNext(c.PostForm("next"))
		render := func(status int, msg string) {
			c.HTML(status, "layout.html", gin.H{
				"page":  "login",
				"next":  next,
				"email": email,
				"error": msg,
			})
		}
		if email == "" || password == "" {
			render(http.StatusUnprocessableEntity, "Email and password are required")
			return
		}

		_, err := a.api.Login(c.Request.Context(), email, password)
		switch api.KindOf(err) {
		case 0:
			if err != nil {
				render(http.StatusInternalServerError, err.Error())
				return
			}
			c.Redirect(http.StatusSeeOther, next)
		case api.KindAuthentication:
			render(http.StatusUnauthorized, api.Message(err))
		case api.KindNetwork:
			render(http.StatusBadGateway, "Cannot reach the analysis service. Check your connection and try again.")
		default:
			render(http.StatusBadGateway, api.Message(err))
		}
	}
}

func handleLogout(a *app) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := a.api.Logout(c.Request.Context()); err != nil {
			a.log.Warn("logout", zap.Error(err))
		}
		c.Redirect(http.StatusSeeOther, LoginRoute)
	}
}
