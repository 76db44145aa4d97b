package messaging

// Well-known MAPI property ids used by the façade layer to locate
// commonly-needed values without requiring every caller to know the
// numeric tags.
const (
	PidTagMessageClass        uint16 = 0x001A
	PidTagSubject             uint16 = 0x0037
	PidTagSentTime            uint16 = 0x0039
	PidTagBody                uint16 = 0x1000
	PidTagHtml                uint16 = 0x1013
	PidTagInternetCodepage    uint16 = 0x3FDE
	PidTagRtfCompressed       uint16 = 0x1009
	PidTagMessageFlags        uint16 = 0x0E07
	PidTagDisplayName         uint16 = 0x3001
	PidTagContentCount        uint16 = 0x3602
	PidTagContentUnreadCount  uint16 = 0x3603
	PidTagSubfolders          uint16 = 0x360A
	PidTagAttachFilename      uint16 = 0x3704
	PidTagAttachLongFilename  uint16 = 0x3707
	PidTagAttachDataBinary    uint16 = 0x3701
	PidTagAttachMethod        uint16 = 0x3705
	PidTagAttachSize          uint16 = 0x0E20
	PidTagDisplayTo           uint16 = 0x0E04
	PidTagMessageDeliveryTime uint16 = 0x0E06
	PidTagHasAttachments      uint16 = 0x0E1B
	PidTagSenderName          uint16 = 0x0C1A
	PidTagRecordKey           uint16 = 0x0FF9
	PidTagIpmSubTreeEntryID   uint16 = 0x35E0
	PidTagIpmWastebasketEntryID uint16 = 0x35E3
	PidTagFinderEntryID       uint16 = 0x35E7
)

// AttachMethod is the PidTagAttachMethod value selecting how an
// attachment row's payload is reached.
type AttachMethod uint32

const (
	AttachMethodNone            AttachMethod = 0x00000000
	AttachMethodByValue         AttachMethod = 0x00000001
	AttachMethodByReference     AttachMethod = 0x00000002
	AttachMethodByReferenceOnly AttachMethod = 0x00000004
	AttachMethodEmbeddedMessage AttachMethod = 0x00000005
	AttachMethodStorage         AttachMethod = 0x00000006
)
