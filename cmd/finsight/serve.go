package main

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/tsawler/finsight"
	"github.com/tsawler/finsight/ingest"
	"github.com/tsawler/finsight/store"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "listen address (default from config, then :8080)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	engine, cfg, err := newEngine()
	if err != nil {
		return err
	}
	defer engine.Close()

	addr := serveListen
	if addr == "" {
		addr = cfg.Listen
	}

	return newRouter(engine).Run(addr)
}

// newRouter wires the HTTP API. The handlers are thin glue over the Engine;
// all answer semantics live in the library.
func newRouter(engine *finsight.Engine) *gin.Engine {
	r := gin.Default()

	api := r.Group("/api")
	{
		api.POST("/ingest", handleIngest(engine))
		api.POST("/query", handleQuery(engine))
		api.GET("/documents", handleDocuments(engine))
		api.GET("/documents/:id/tables", handleDocumentTables(engine))
	}

	return r
}

type ingestRequest struct {
	Path        string   `json:"path" binding:"required"`
	DisplayName string   `json:"displayName"`
	Category    string   `json:"category"`
	Date        string   `json:"date"`
	Tags        []string `json:"tags"`
	Replace     bool     `json:"replace"`
}

func handleIngest(engine *finsight.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ingestRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		meta := ingest.Meta{
			DisplayName: req.DisplayName,
			Category:    req.Category,
			Date:        req.Date,
			Tags:        req.Tags,
		}

		var (
			doc interface{}
			err error
		)
		if req.Replace {
			doc, err = engine.Reingest(c.Request.Context(), req.Path, meta)
		} else {
			doc, err = engine.Ingest(c.Request.Context(), req.Path, meta)
		}
		switch {
		// ErrDuplicateDocument wraps this, so one check covers both the
		// pipeline pre-check and a store-level conflict.
		case errors.Is(err, store.ErrDuplicateFileName):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case err != nil:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusCreated, doc)
		}
	}
}

type queryRequest struct {
	Question    string   `json:"question" binding:"required"`
	DocumentIDs []string `json:"documentIds"`
}

func handleQuery(engine *finsight.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req queryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		answer := engine.Ask(c.Request.Context(), req.Question, req.DocumentIDs...)
		c.JSON(http.StatusOK, answer)
	}
}

func handleDocuments(engine *finsight.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		docs, err := engine.Documents(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, docs)
	}
}

func handleDocumentTables(engine *finsight.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := engine.Document(c.Request.Context(), c.Param("id")); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		tabs, err := engine.DocumentTables(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, tabs)
	}
}
