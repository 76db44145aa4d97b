package messaging

import (
	"fmt"

	"github.com/pstkit/pst/internal/ltp"
	"github.com/pstkit/pst/internal/ndb"
	"github.com/pstkit/pst/internal/node"
)

// Message is the façade over a normal, associated, or attachment-embedded
// message node: its property context, plus its recipient and (optional)
// attachment tables, both reached through the message's own sub-node
// map rather than the node B-tree (unlike a folder's sibling tables).
type Message struct {
	store       *Store
	node        *node.Node
	properties  map[uint16]ltp.PropertyValue
	recipients  *ltp.TableContext
	attachments *ltp.TableContext
}

// OpenMessage resolves entryID to a normal, associated, or embedded
// message and decodes its PC plus recipient/attachment tables.
func (s *Store) OpenMessage(entryID EntryID) (*Message, error) {
	switch entryID.NID.Type() {
	case ndb.NodeIDTypeNormalMessage, ndb.NodeIDTypeAssociatedMessage, ndb.NodeIDTypeAttachment:
	default:
		return nil, fmt.Errorf("%w: nid type 0x%02x", ErrNotAMessage, entryID.NID.Type())
	}
	n, err := s.openNode(entryID)
	if err != nil {
		return nil, err
	}
	return s.buildMessage(n)
}

func (s *Store) buildMessage(n *node.Node) (*Message, error) {
	pc, err := n.PropertyContext(s.decodeString8)
	if err != nil {
		return nil, err
	}
	props, err := pc.All()
	if err != nil {
		return nil, err
	}

	m := &Message{store: s, node: n, properties: props}

	recipNID := n.Entry.NID.WithType(ndb.NodeIDTypeRecipientTable)
	if sub, err := n.SubNode(recipNID); err == nil {
		recipients, err := sub.TableContext(s.decodeString8)
		if err != nil {
			return nil, fmt.Errorf("recipient table: %w", err)
		}
		m.recipients = recipients
	}

	attachNID := n.Entry.NID.WithType(ndb.NodeIDTypeAttachmentTable)
	if sub, err := n.SubNode(attachNID); err == nil {
		attachments, err := sub.TableContext(s.decodeString8)
		if err != nil {
			return nil, fmt.Errorf("attachment table: %w", err)
		}
		m.attachments = attachments
	}

	return m, nil
}

// Store returns the message's owning store.
func (m *Message) Store() *Store { return m.store }

// Properties returns every property the message's PC holds.
func (m *Message) Properties() map[uint16]ltp.PropertyValue { return m.properties }

func (m *Message) stringField(id uint16) (string, error) {
	v, ok := m.properties[id]
	if !ok {
		return "", fmt.Errorf("%w: 0x%04x", ltp.ErrMissingProperty, id)
	}
	return stringProperty(v)
}

// MessageClass is PidTagMessageClass (e.g. "IPM.Note").
func (m *Message) MessageClass() (string, error) { return m.stringField(PidTagMessageClass) }

// Subject is PidTagSubject.
func (m *Message) Subject() (string, error) { return m.stringField(PidTagSubject) }

// SenderName is PidTagSenderName.
func (m *Message) SenderName() (string, error) { return m.stringField(PidTagSenderName) }

// Body is PidTagBody, the plain-text message body.
func (m *Message) Body() (string, error) { return m.stringField(PidTagBody) }

// HTMLBody is PidTagHtml: either a Unicode string or a binary run in the
// code page named by PidTagInternetCodepage, depending on how the
// message was authored. Binary HTML is returned undecoded; the caller
// applies its own code-page decoder (§6.3).
func (m *Message) HTMLBody() (ltp.PropertyValue, error) {
	v, ok := m.properties[PidTagHtml]
	if !ok {
		return ltp.PropertyValue{}, fmt.Errorf("%w: html body", ltp.ErrMissingProperty)
	}
	return v, nil
}

// RTFCompressedBody returns the raw PidTagRtfCompressed bytes; callers
// pass this to rtf.DecompressRTF.
func (m *Message) RTFCompressedBody() ([]byte, error) {
	v, ok := m.properties[PidTagRtfCompressed]
	if !ok {
		return nil, fmt.Errorf("%w: rtf compressed body", ltp.ErrMissingProperty)
	}
	return binaryProperty(v)
}

// MessageFlags is PidTagMessageFlags.
func (m *Message) MessageFlags() (int32, error) {
	v, ok := m.properties[PidTagMessageFlags]
	if !ok {
		return 0, fmt.Errorf("%w: message flags", ltp.ErrMissingProperty)
	}
	n, ok2 := v.Value.(int32)
	if !ok2 {
		return 0, fmt.Errorf("%w: message flags", ltp.ErrWrongPropertyType)
	}
	return n, nil
}

// RecipientTable lists this message's recipients.
func (m *Message) RecipientTable() *ltp.TableContext { return m.recipients }

// AttachmentTable lists this message's attachments, or nil if the
// message carries none.
func (m *Message) AttachmentTable() *ltp.TableContext { return m.attachments }

// OpenAttachment resolves subNodeID (one row's dwRowID from
// AttachmentTable) against the message's own sub-node map and decodes
// its PC.
func (m *Message) OpenAttachment(subNodeID ndb.NodeID) (*Attachment, error) {
	if subNodeID.Type() != ndb.NodeIDTypeAttachment {
		return nil, fmt.Errorf("%w: nid type 0x%02x", ErrNotAnAttachment, subNodeID.Type())
	}
	n, err := m.node.SubNode(subNodeID)
	if err != nil {
		return nil, err
	}
	pc, err := n.PropertyContext(m.store.decodeString8)
	if err != nil {
		return nil, err
	}
	props, err := pc.All()
	if err != nil {
		return nil, err
	}
	return &Attachment{message: m, node: n, properties: props}, nil
}
