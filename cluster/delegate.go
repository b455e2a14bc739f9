package cluster

import (
	"encoding/json"

	"github.com/go-kit/log/level"
	"github.com/hashicorp/memberlist"
)

// nodeMeta is the payload gossiped alongside the memberlist node record.
type nodeMeta struct {
	ID          NodeID `json:"id"`
	Name        string `json:"name"`
	Cluster     string `json:"cluster"`
	ControlAddr string `json:"control_addr"`
	Roles       []Role `json:"roles"`
}

// metaDelegate implements memberlist.Delegate. We only use the node meta
// slot; state merging and broadcasts stay with the memberlist protocol
// itself.
type metaDelegate struct {
	cluster *Cluster
}

func (d *metaDelegate) NodeMeta(limit int) []byte {
	self := d.cluster.Self()

	buf, err := json.Marshal(nodeMeta{
		ID:          self.ID,
		Name:        self.Name,
		Cluster:     d.cluster.conf.ClusterName,
		ControlAddr: self.ControlAddr,
		Roles:       self.Roles,
	})
	if err != nil || len(buf) > limit {
		return nil
	}

	return buf
}

func (d *metaDelegate) NotifyMsg([]byte) {}

func (d *metaDelegate) GetBroadcasts(overhead, limit int) [][]byte { return nil }

func (d *metaDelegate) LocalState(join bool) []byte { return nil }

func (d *metaDelegate) MergeRemoteState(buf []byte, join bool) {}

// eventDelegate translates memberlist events into membership view
// updates.
type eventDelegate struct {
	cluster *Cluster
}

func (d *eventDelegate) NotifyJoin(n *memberlist.Node) {
	node, ok := d.decode(n)
	if !ok {
		return
	}

	d.cluster.handleJoin(node)
}

func (d *eventDelegate) NotifyUpdate(n *memberlist.Node) {
	node, ok := d.decode(n)
	if !ok {
		return
	}

	d.cluster.handleUpdate(node)
}

func (d *eventDelegate) NotifyLeave(n *memberlist.Node) {
	d.cluster.handleLeave(NodeID(n.Name))
}

// decode unpacks the gossiped meta and refuses nodes of foreign
// clusters.
func (d *eventDelegate) decode(n *memberlist.Node) (Node, bool) {
	var meta nodeMeta

	if len(n.Meta) == 0 || json.Unmarshal(n.Meta, &meta) != nil {
		level.Warn(d.cluster.conf.Logger).Log(
			"msg", "ignoring node with unreadable meta",
			"node", n.Name,
		)

		return Node{}, false
	}

	if meta.Cluster != d.cluster.conf.ClusterName {
		level.Warn(d.cluster.conf.Logger).Log(
			"msg", "ignoring node from foreign cluster",
			"node", n.Name,
			"cluster", meta.Cluster,
		)

		return Node{}, false
	}

	return Node{
		ID:          meta.ID,
		Name:        meta.Name,
		Roles:       meta.Roles,
		ControlAddr: meta.ControlAddr,
		GossipAddr:  n.Address(),
	}, true
}
