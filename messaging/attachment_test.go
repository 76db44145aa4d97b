package messaging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pstkit/pst/internal/ltp"
)

func TestAttachmentMethodMissingProperty(t *testing.T) {
	a := &Attachment{properties: map[uint16]ltp.PropertyValue{}}
	_, err := a.Method()
	require.Error(t, err)
	assert.ErrorIs(t, err, ltp.ErrMissingProperty)
}

func TestAttachmentMethodWrongType(t *testing.T) {
	a := &Attachment{properties: map[uint16]ltp.PropertyValue{
		PidTagAttachMethod: {Value: "not an int"},
	}}
	_, err := a.Method()
	require.Error(t, err)
	assert.ErrorIs(t, err, ltp.ErrWrongPropertyType)
}

func TestAttachmentFilenamePrefersLongName(t *testing.T) {
	a := &Attachment{properties: map[uint16]ltp.PropertyValue{
		PidTagAttachFilename:     {Value: "SHORT~1.TXT"},
		PidTagAttachLongFilename: {Value: "a long filename.txt"},
	}}
	name, err := a.Filename()
	require.NoError(t, err)
	assert.Equal(t, "a long filename.txt", name)
}

func TestAttachmentFilenameFallsBackToShortName(t *testing.T) {
	a := &Attachment{properties: map[uint16]ltp.PropertyValue{
		PidTagAttachFilename: {Value: "SHORT~1.TXT"},
	}}
	name, err := a.Filename()
	require.NoError(t, err)
	assert.Equal(t, "SHORT~1.TXT", name)
}

func TestAttachmentFilenameMissing(t *testing.T) {
	a := &Attachment{properties: map[uint16]ltp.PropertyValue{}}
	_, err := a.Filename()
	require.Error(t, err)
	assert.ErrorIs(t, err, ltp.ErrMissingProperty)
}

// TestAttachmentDataNoneVariants checks the §9 open-question decision: By
// reference and reference-only attachments carry no local payload, so
// Data reports AttachmentDataNone rather than erroring.
func TestAttachmentDataNoneVariants(t *testing.T) {
	for _, method := range []AttachMethod{AttachMethodNone, AttachMethodByReference, AttachMethodByReferenceOnly} {
		a := &Attachment{properties: map[uint16]ltp.PropertyValue{
			PidTagAttachMethod: {Value: int32(method)},
		}}
		data, err := a.Data()
		require.NoError(t, err)
		assert.Equal(t, AttachmentDataNone, data.Kind)
	}
}

func TestAttachmentDataByValue(t *testing.T) {
	a := &Attachment{properties: map[uint16]ltp.PropertyValue{
		PidTagAttachMethod:     {Value: int32(AttachMethodByValue)},
		PidTagAttachDataBinary: {Value: []byte("file contents")},
	}}
	data, err := a.Data()
	require.NoError(t, err)
	assert.Equal(t, AttachmentDataBinary, data.Kind)
	assert.Equal(t, []byte("file contents"), data.Binary)
}

func TestAttachmentDataByValueMissingBinary(t *testing.T) {
	a := &Attachment{properties: map[uint16]ltp.PropertyValue{
		PidTagAttachMethod: {Value: int32(AttachMethodByValue)},
	}}
	_, err := a.Data()
	require.Error(t, err)
	assert.ErrorIs(t, err, ltp.ErrMissingProperty)
}

func TestAttachmentDataUnrecognizedMethod(t *testing.T) {
	a := &Attachment{properties: map[uint16]ltp.PropertyValue{
		PidTagAttachMethod: {Value: int32(0x7f)},
	}}
	_, err := a.Data()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidAttachMethod)
}

func TestAttachmentObjectRefWrongType(t *testing.T) {
	a := &Attachment{properties: map[uint16]ltp.PropertyValue{
		PidTagAttachDataBinary: {Value: int32(5)},
	}}
	_, err := a.objectRef()
	require.Error(t, err)
	assert.ErrorIs(t, err, ltp.ErrWrongPropertyType)
}
