package jobclient

import (
	"bytes"
	"errors"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"reflect"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
)

const missingFileMessage = "ファイルを選択してください。"

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func newValidator() *validator.Validate {
	v := validator.New()
	// エラーのフィールド名はフォーム名で返す
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// checkSubmission は送信前の必須チェックを行います。拒否するのはファイル未選択だけです。
func checkSubmission(v *validator.Validate, sub Submission) (Options, error) {
	if err := v.Struct(sub); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return Options{}, &ValidationError{Field: fe.Field(), Message: missingFileMessage}
		}
		return Options{}, err
	}
	return sub.Options.Normalized(), nil
}

// buildUploadForm は /upload に送る multipart ボディを組み立てます。
func buildUploadForm(file *File, opts Options) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	name := file.Name
	if name == "" {
		name = "upload"
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(name)))
	header.Set("Content-Type", mimetype.Detect(file.Data).String())

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create file part: %w", err)
	}
	if _, err := part.Write(file.Data); err != nil {
		return nil, "", fmt.Errorf("failed to write file part: %w", err)
	}

	for _, field := range opts.formFields() {
		if err := writer.WriteField(field.name, field.value); err != nil {
			return nil, "", fmt.Errorf("failed to write field %s: %w", field.name, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close multipart writer: %w", err)
	}
	return body, writer.FormDataContentType(), nil
}
