// Package proto contains the wire types of the node control protocol.
// The messages are maintained by hand in the pre-reflection style so the
// repository does not depend on a protoc toolchain: the struct tags carry
// the field descriptors, which the protobuf runtime picks up through its
// legacy message support. Keep them in sync with nodectl.proto.
package proto

import (
	"github.com/golang/protobuf/proto"
)

type ComponentStatus int32

const (
	ComponentStatus_COMPONENT_STATUS_UNKNOWN       ComponentStatus = 0
	ComponentStatus_COMPONENT_STATUS_STARTING      ComponentStatus = 1
	ComponentStatus_COMPONENT_STATUS_ACTIVE        ComponentStatus = 2
	ComponentStatus_COMPONENT_STATUS_SHUTTING_DOWN ComponentStatus = 3
)

var componentStatusName = map[ComponentStatus]string{
	0: "COMPONENT_STATUS_UNKNOWN",
	1: "COMPONENT_STATUS_STARTING",
	2: "COMPONENT_STATUS_ACTIVE",
	3: "COMPONENT_STATUS_SHUTTING_DOWN",
}

func (x ComponentStatus) String() string {
	if name, ok := componentStatusName[x]; ok {
		return name
	}

	return "COMPONENT_STATUS_UNKNOWN"
}

type FrameKind int32

const (
	FrameKind_FRAME_KIND_UNKNOWN FrameKind = 0
	FrameKind_FRAME_KIND_HEADER  FrameKind = 1
	FrameKind_FRAME_KIND_DATA    FrameKind = 2
)

var frameKindName = map[FrameKind]string{
	0: "FRAME_KIND_UNKNOWN",
	1: "FRAME_KIND_HEADER",
	2: "FRAME_KIND_DATA",
}

func (x FrameKind) String() string {
	if name, ok := frameKindName[x]; ok {
		return name
	}

	return "FRAME_KIND_UNKNOWN"
}

type MessageKind int32

const (
	MessageKind_MESSAGE_KIND_UNKNOWN MessageKind = 0
	MessageKind_MESSAGE_KIND_HELLO   MessageKind = 1
	MessageKind_MESSAGE_KIND_DATA    MessageKind = 2
	MessageKind_MESSAGE_KIND_ACK     MessageKind = 3
	MessageKind_MESSAGE_KIND_DRAIN   MessageKind = 4
)

var messageKindName = map[MessageKind]string{
	0: "MESSAGE_KIND_UNKNOWN",
	1: "MESSAGE_KIND_HELLO",
	2: "MESSAGE_KIND_DATA",
	3: "MESSAGE_KIND_ACK",
	4: "MESSAGE_KIND_DRAIN",
}

func (x MessageKind) String() string {
	if name, ok := messageKindName[x]; ok {
		return name
	}

	return "MESSAGE_KIND_UNKNOWN"
}

type IdentRequest struct{}

func (m *IdentRequest) Reset()         { *m = IdentRequest{} }
func (m *IdentRequest) String() string { return proto.CompactTextString(m) }
func (*IdentRequest) ProtoMessage()    {}

type IdentResponse struct {
	NodeId      string   `protobuf:"bytes,1,opt,name=node_id,json=nodeId,proto3" json:"node_id,omitempty"`
	ClusterName string   `protobuf:"bytes,2,opt,name=cluster_name,json=clusterName,proto3" json:"cluster_name,omitempty"`
	Roles       []string `protobuf:"bytes,3,rep,name=roles,proto3" json:"roles,omitempty"`
	AgeS        uint64   `protobuf:"varint,4,opt,name=age_s,json=ageS,proto3" json:"age_s,omitempty"`

	AdminStatus          ComponentStatus `protobuf:"varint,5,opt,name=admin_status,json=adminStatus,proto3,enum=nodectl.ComponentStatus" json:"admin_status,omitempty"`
	WorkerStatus         ComponentStatus `protobuf:"varint,6,opt,name=worker_status,json=workerStatus,proto3,enum=nodectl.ComponentStatus" json:"worker_status,omitempty"`
	LogServerStatus      ComponentStatus `protobuf:"varint,7,opt,name=log_server_status,json=logServerStatus,proto3,enum=nodectl.ComponentStatus" json:"log_server_status,omitempty"`
	MetadataServerStatus ComponentStatus `protobuf:"varint,8,opt,name=metadata_server_status,json=metadataServerStatus,proto3,enum=nodectl.ComponentStatus" json:"metadata_server_status,omitempty"`

	NodesConfigVersion    uint64 `protobuf:"varint,9,opt,name=nodes_config_version,json=nodesConfigVersion,proto3" json:"nodes_config_version,omitempty"`
	LogsVersion           uint64 `protobuf:"varint,10,opt,name=logs_version,json=logsVersion,proto3" json:"logs_version,omitempty"`
	SchemaVersion         uint64 `protobuf:"varint,11,opt,name=schema_version,json=schemaVersion,proto3" json:"schema_version,omitempty"`
	PartitionTableVersion uint64 `protobuf:"varint,12,opt,name=partition_table_version,json=partitionTableVersion,proto3" json:"partition_table_version,omitempty"`
}

func (m *IdentResponse) Reset()         { *m = IdentResponse{} }
func (m *IdentResponse) String() string { return proto.CompactTextString(m) }
func (*IdentResponse) ProtoMessage()    {}

type QueryRequest struct {
	Query string `protobuf:"bytes,1,opt,name=query,proto3" json:"query,omitempty"`
}

func (m *QueryRequest) Reset()         { *m = QueryRequest{} }
func (m *QueryRequest) String() string { return proto.CompactTextString(m) }
func (*QueryRequest) ProtoMessage()    {}

// QueryResponse is one frame of a query result stream. Kind tells the
// frame types apart on the wire: proto3 drops empty bytes fields, so the
// presence of Header alone cannot.
type QueryResponse struct {
	Kind   FrameKind `protobuf:"varint,1,opt,name=kind,proto3,enum=nodectl.FrameKind" json:"kind,omitempty"`
	Header []byte    `protobuf:"bytes,2,opt,name=header,proto3" json:"header,omitempty"`
	Data   []byte    `protobuf:"bytes,3,opt,name=data,proto3" json:"data,omitempty"`
}

func (m *QueryResponse) Reset()         { *m = QueryResponse{} }
func (m *QueryResponse) String() string { return proto.CompactTextString(m) }
func (*QueryResponse) ProtoMessage()    {}

type Message struct {
	Kind    MessageKind `protobuf:"varint,1,opt,name=kind,proto3,enum=nodectl.MessageKind" json:"kind,omitempty"`
	Seq     uint64      `protobuf:"varint,2,opt,name=seq,proto3" json:"seq,omitempty"`
	AckSeq  uint64      `protobuf:"varint,3,opt,name=ack_seq,json=ackSeq,proto3" json:"ack_seq,omitempty"`
	Payload []byte      `protobuf:"bytes,4,opt,name=payload,proto3" json:"payload,omitempty"`

	NodeId          string `protobuf:"bytes,5,opt,name=node_id,json=nodeId,proto3" json:"node_id,omitempty"`
	ClusterName     string `protobuf:"bytes,6,opt,name=cluster_name,json=clusterName,proto3" json:"cluster_name,omitempty"`
	ProtocolVersion uint32 `protobuf:"varint,7,opt,name=protocol_version,json=protocolVersion,proto3" json:"protocol_version,omitempty"`
}

func (m *Message) Reset()         { *m = Message{} }
func (m *Message) String() string { return proto.CompactTextString(m) }
func (*Message) ProtoMessage()    {}
