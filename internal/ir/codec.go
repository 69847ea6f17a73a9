package ir

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"ilwasm/internal/diag"
	"ilwasm/internal/source"
	"ilwasm/internal/types"
)

// SchemaVersion is bumped whenever the encoded layout changes.
const SchemaVersion uint16 = 1

// document is the top-level msgpack envelope.
type document struct {
	Schema   uint16
	Name     string
	Files    []string
	Types    []types.Type
	Nominals []types.NominalInfo
	Decls    []*TypeDecl
}

// Encode writes prog as a msgpack document.
func Encode(w io.Writer, prog *Program) error {
	doc := document{
		Schema:   SchemaVersion,
		Name:     prog.Name,
		Types:    prog.Types.Descriptors(),
		Nominals: prog.Types.Nominals(),
		Decls:    prog.Decls,
	}
	if prog.Files != nil {
		doc.Files = prog.Files.Paths()
	}
	enc := msgpack.NewEncoder(w)
	if err := enc.Encode(&doc); err != nil {
		return fmt.Errorf("encode %s: %w", prog.Name, err)
	}
	return nil
}

// Marshal encodes prog into a byte slice.
func Marshal(prog *Program) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, prog); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode reads a program written by Encode and checks that statement IDs are
// unique.
func Decode(r io.Reader) (*Program, error) {
	var doc document
	dec := msgpack.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		var de *diag.Error
		if errors.As(err, &de) {
			return nil, de
		}
		return nil, diag.Errorf(diag.IRDecodeFailed, source.Span{}, "decode IR: %v", err)
	}
	if doc.Schema != SchemaVersion {
		return nil, diag.Errorf(diag.IRSchemaMismatch, source.Span{},
			"IR schema %d, expected %d", doc.Schema, SchemaVersion)
	}
	in, err := types.Restore(doc.Types, doc.Nominals)
	if err != nil {
		return nil, diag.Errorf(diag.IRDecodeFailed, source.Span{}, "restore type table: %v", err)
	}
	files := source.NewFileSet()
	for _, p := range doc.Files {
		files.Add(p)
	}
	prog := &Program{Name: doc.Name, Types: in, Files: files, Decls: doc.Decls}
	if err := checkNodeIDs(prog); err != nil {
		return nil, err
	}
	return prog, nil
}

// Unmarshal decodes a program from data.
func Unmarshal(data []byte) (*Program, error) {
	return Decode(bytes.NewReader(data))
}

func checkNodeIDs(prog *Program) error {
	seen := make(map[NodeID]struct{})
	for _, fn := range prog.Funcs() {
		var dup *Stmt
		WalkStmt(fn.Body, Visitor{Stmt: func(s *Stmt) bool {
			if dup != nil {
				return false
			}
			if _, ok := seen[s.ID]; ok || !s.ID.IsValid() {
				dup = s
				return false
			}
			seen[s.ID] = struct{}{}
			return true
		}})
		if dup != nil {
			return diag.Errorf(diag.IRDuplicateNodeID, dup.Span,
				"statement id %d is missing or reused", dup.ID).InMember(fn.QualifiedName())
		}
	}
	return nil
}

var _ msgpack.CustomEncoder = (*Expr)(nil)
var _ msgpack.CustomDecoder = (*Expr)(nil)

// EncodeMsgpack writes the node as [kind, type, span, data].
func (e *Expr) EncodeMsgpack(enc *msgpack.Encoder) error {
	if err := enc.EncodeArrayLen(4); err != nil {
		return err
	}
	if err := enc.EncodeUint8(uint8(e.Kind)); err != nil {
		return err
	}
	if err := enc.EncodeUint32(uint32(e.Type)); err != nil {
		return err
	}
	if err := enc.Encode(e.Span); err != nil {
		return err
	}
	return enc.Encode(e.Data)
}

// DecodeMsgpack reads a node written by EncodeMsgpack; the payload type is
// chosen by kind.
func (e *Expr) DecodeMsgpack(dec *msgpack.Decoder) error {
	n, err := dec.DecodeArrayLen()
	if err != nil {
		return err
	}
	if n != 4 {
		return fmt.Errorf("expression node has %d fields, want 4", n)
	}
	kind, err := dec.DecodeUint8()
	if err != nil {
		return err
	}
	typ, err := dec.DecodeUint32()
	if err != nil {
		return err
	}
	e.Kind = ExprKind(kind)
	e.Type = types.TypeID(typ)
	if err := dec.Decode(&e.Span); err != nil {
		return err
	}
	data := newExprData(e.Kind)
	if data == nil {
		return diag.Errorf(diag.IRUnknownKind, e.Span, "unknown expression kind %d", kind)
	}
	if err := dec.Decode(data); err != nil {
		return err
	}
	e.Data = data
	return nil
}

func newExprData(kind ExprKind) ExprData {
	switch kind {
	case ExprLiteral:
		return &LiteralData{}
	case ExprVariable:
		return &VariableData{}
	case ExprBinary:
		return &BinaryData{}
	case ExprUnary:
		return &UnaryData{}
	case ExprCall:
		return &CallData{}
	case ExprField:
		return &FieldData{}
	case ExprProperty:
		return &PropertyData{}
	case ExprCast:
		return &CastData{}
	case ExprReference:
		return &ReferenceData{}
	case ExprComma:
		return &CommaData{}
	case ExprConditional:
		return &ConditionalData{}
	case ExprArrayInit:
		return &ArrayInitData{}
	case ExprGetMemory, ExprSetMemory:
		return &MemoryData{}
	case ExprStringLength:
		return &StringLengthData{}
	case ExprIntrinsic:
		return &IntrinsicData{}
	case ExprInvoke:
		return &InvokeData{}
	case ExprAssertReturn, ExprAssertEq:
		return &AssertData{}
	case ExprAssertHeapEq:
		return &AssertHeapData{}
	case ExprHarnessCall:
		return &HarnessCallData{}
	}
	return nil
}

var _ msgpack.CustomEncoder = (*Stmt)(nil)
var _ msgpack.CustomDecoder = (*Stmt)(nil)

// EncodeMsgpack writes the node as [kind, id, span, data].
func (s *Stmt) EncodeMsgpack(enc *msgpack.Encoder) error {
	if err := enc.EncodeArrayLen(4); err != nil {
		return err
	}
	if err := enc.EncodeUint8(uint8(s.Kind)); err != nil {
		return err
	}
	if err := enc.EncodeUint32(uint32(s.ID)); err != nil {
		return err
	}
	if err := enc.Encode(s.Span); err != nil {
		return err
	}
	return enc.Encode(s.Data)
}

// DecodeMsgpack reads a node written by EncodeMsgpack.
func (s *Stmt) DecodeMsgpack(dec *msgpack.Decoder) error {
	n, err := dec.DecodeArrayLen()
	if err != nil {
		return err
	}
	if n != 4 {
		return fmt.Errorf("statement node has %d fields, want 4", n)
	}
	kind, err := dec.DecodeUint8()
	if err != nil {
		return err
	}
	id, err := dec.DecodeUint32()
	if err != nil {
		return err
	}
	s.Kind = StmtKind(kind)
	s.ID = NodeID(id)
	if err := dec.Decode(&s.Span); err != nil {
		return err
	}
	data := newStmtData(s.Kind)
	if data == nil {
		return diag.Errorf(diag.IRUnknownKind, s.Span, "unknown statement kind %d", kind)
	}
	if err := dec.Decode(data); err != nil {
		return err
	}
	s.Data = data
	return nil
}

func newStmtData(kind StmtKind) StmtData {
	switch kind {
	case StmtBlock:
		return &BlockData{}
	case StmtExpr:
		return &ExprStmtData{}
	case StmtIf:
		return &IfData{}
	case StmtFor:
		return &ForData{}
	case StmtWhile, StmtDo:
		return &WhileData{}
	case StmtLabelGroup:
		return &LabelGroupData{}
	case StmtGoto:
		return &GotoData{}
	case StmtBreak, StmtContinue:
		return &BranchData{}
	case StmtReturn:
		return &ReturnData{}
	case StmtSwitch:
		return &SwitchData{}
	case StmtVarDecl:
		return &VarDeclData{}
	}
	return nil
}
