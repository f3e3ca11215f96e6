package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"

	e "github.com/gartstein/minicrm/internal/crm/errors"
	"github.com/gartstein/minicrm/internal/crm/upload"
	"github.com/gartstein/minicrm/internal/crm/validation"
	"github.com/gin-gonic/gin"
)

const logoField = "logo"

// bindFields reads the submitted fields from a JSON, urlencoded or multipart
// body. A file sent as logo is returned separately. A JSON null counts as a
// submitted empty value; other non-string JSON values are kept raw so string
// rules can reject them.
func bindFields(c *gin.Context) (validation.Fields, *upload.File, error) {
	mediaType, _, _ := mime.ParseMediaType(c.GetHeader("Content-Type"))

	switch mediaType {
	case "multipart/form-data":
		if err := c.Request.ParseMultipartForm(multipartMemory); err != nil {
			return nil, nil, bodyError(err)
		}
		fields := formFields(c.Request)
		logo, err := formFile(c.Request, logoField)
		if err != nil {
			return nil, nil, bodyError(err)
		}
		if logo != nil {
			delete(fields, logoField)
		}
		return fields, logo, nil

	case "application/x-www-form-urlencoded":
		if err := c.Request.ParseForm(); err != nil {
			return nil, nil, bodyError(err)
		}
		return formFields(c.Request), nil, nil

	default:
		fields, err := jsonFields(c.Request.Body)
		if err != nil {
			return nil, nil, bodyError(err)
		}
		return fields, nil, nil
	}
}

func bodyError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return err
	}
	return fmt.Errorf("%w: %v", e.ErrInvalidInput, err)
}

func formFields(r *http.Request) validation.Fields {
	fields := validation.Fields{}
	for key, values := range r.PostForm {
		if key == overrideField || len(values) == 0 {
			continue
		}
		fields[key] = values[0]
	}
	return fields
}

func formFile(r *http.Request, field string) (*upload.File, error) {
	if r.MultipartForm == nil || len(r.MultipartForm.File[field]) == 0 {
		return nil, nil
	}
	header := r.MultipartForm.File[field][0]
	return readFile(header)
}

func readFile(header *multipart.FileHeader) (*upload.File, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return &upload.File{Filename: header.Filename, Size: header.Size, Data: data}, nil
}

func jsonFields(body io.Reader) (validation.Fields, error) {
	fields := validation.Fields{}
	if body == nil {
		return fields, nil
	}

	var raw map[string]interface{}
	dec := json.NewDecoder(body)
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return fields, nil
		}
		return nil, err
	}

	for key, value := range raw {
		switch v := value.(type) {
		case nil:
			fields[key] = ""
		case string:
			fields[key] = v
		case json.Number:
			fields.SetRaw(key, v.String())
		case bool:
			fields.SetRaw(key, strconv.FormatBool(v))
		default:
			b, _ := json.Marshal(v)
			fields.SetRaw(key, string(b))
		}
	}
	return fields, nil
}

// pathID parses the :id parameter. Anything that is not a positive integer
// is reported as a missing resource.
func pathID(c *gin.Context, resource string) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, e.NotFound(resource)
	}
	return uint(id), nil
}
