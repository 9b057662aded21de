package handler

import (
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/pkg/errors"
)

type credentialsRequest struct {
	Username string `json:"username" binding:"required,notblank"`
	Password string `json:"password" binding:"required"`
}

type postRequest struct {
	Title   string `json:"title" binding:"required,notblank"`
	Content string `json:"content" binding:"required,notblank"`
}

type createCommentRequest struct {
	Content         string  `json:"content" binding:"required,notblank,max=2000"`
	PostID          string  `json:"postId" binding:"required"`
	ParentCommentID *string `json:"parentCommentId"`
}

type updateCommentRequest struct {
	Content string `json:"content" binding:"required,notblank,max=2000"`
}

type pageQuery struct {
	Limit  int `form:"limit" binding:"min=0"`
	Offset int `form:"offset" binding:"min=0"`
}

var registerOnce sync.Once

// registerValidators adds the notblank rule to gin's validator and makes
// field errors use json names.
func registerValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			panic(errors.Errorf("unexpected gin validator engine %T", binding.Validator.Engine()))
		}
		if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
			panic(errors.Wrap(err, "register notblank validation"))
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
				if name != "" && name != "-" {
					return name
				}
			}
			return f.Name
		})
	})
}

// bind decodes the request with fn and answers 400 on failure.
func (h *Handler) bind(c *gin.Context, fn func(any) error, dst any) bool {
	if err := fn(dst); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": bindMessage(err)})
		return false
	}
	return true
}

func bindMessage(err error) string {
	var fields validator.ValidationErrors
	if !errors.As(err, &fields) || len(fields) == 0 {
		return "Invalid request"
	}

	fe := fields[0]
	switch fe.Tag() {
	case "required", "notblank":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
