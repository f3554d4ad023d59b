package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"github.com/larderapp/v1/internal/infrastructure/config"
	"github.com/larderapp/v1/test/testutils"
)

// UploadHandlersTestSuite provides a test suite for the upload handler
type UploadHandlersTestSuite struct {
	suite.Suite
	storage *testutils.MockStorageService
	handler *UploadHandlers
}

func (suite *UploadHandlersTestSuite) SetupTest() {
	suite.storage = testutils.NewMockStorageService()
	suite.handler = NewUploadHandlers(suite.storage, config.StorageConfig{
		MaxFileSize:  1 << 20,
		AllowedTypes: []string{"image/jpeg", "image/png"},
		URLExpiry:    15 * time.Minute,
	}, zap.NewNop())
}

// multipartImage builds a multipart request body carrying one image field
func (suite *UploadHandlersTestSuite) multipartImage(filename, contentType string, data []byte) (*bytes.Buffer, string) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="image"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	require.NoError(suite.T(), err)
	_, err = part.Write(data)
	require.NoError(suite.T(), err)
	require.NoError(suite.T(), writer.Close())

	return &buf, writer.FormDataContentType()
}

func (suite *UploadHandlersTestSuite) TestUploadImage() {
	suite.Run("ValidImage_ShouldStoreAndPresign", func() {
		suite.SetupTest()
		suite.storage.On("Upload", mock.Anything, mock.Anything, []byte("fake-jpeg"), "image/jpeg").
			Return("s3://bucket/uploads/key.jpg", nil)
		suite.storage.On("GeneratePresignedURL", mock.Anything, mock.Anything, 15*time.Minute).
			Return("https://bucket.s3.amazonaws.com/uploads/key.jpg?signed", nil)

		body, contentType := suite.multipartImage("pantry.jpg", "image/jpeg", []byte("fake-jpeg"))
		req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()

		suite.handler.UploadImage(rec, req)

		require.Equal(suite.T(), http.StatusCreated, rec.Code)
		var resp struct {
			Success bool `json:"success"`
			Data    struct {
				Key string `json:"key"`
				URL string `json:"url"`
			} `json:"data"`
		}
		require.NoError(suite.T(), json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(suite.T(), resp.Success)
		assert.Contains(suite.T(), resp.Data.Key, "uploads/")
		assert.Contains(suite.T(), resp.Data.URL, "signed")
		suite.storage.AssertExpectations(suite.T())
	})

	suite.Run("UnsupportedType_ShouldReject", func() {
		suite.SetupTest()

		body, contentType := suite.multipartImage("notes.txt", "text/plain", []byte("hello"))
		req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()

		suite.handler.UploadImage(rec, req)

		assert.Equal(suite.T(), http.StatusBadRequest, rec.Code)
		suite.storage.AssertNotCalled(suite.T(), "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	suite.Run("MissingImageField_ShouldReject", func() {
		suite.SetupTest()

		var buf bytes.Buffer
		writer := multipart.NewWriter(&buf)
		require.NoError(suite.T(), writer.WriteField("other", "value"))
		require.NoError(suite.T(), writer.Close())
		req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads", &buf)
		req.Header.Set("Content-Type", writer.FormDataContentType())
		rec := httptest.NewRecorder()

		suite.handler.UploadImage(rec, req)

		assert.Equal(suite.T(), http.StatusBadRequest, rec.Code)
	})
}

func TestUploadHandlersTestSuite(t *testing.T) {
	suite.Run(t, new(UploadHandlersTestSuite))
}
