package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func link(id, from, to int64, label string, counterpart PersonSummary) Link {
	return Link{
		Relationship: Relationship{ID: id, PersonID: from, RelatedPersonID: to, RelationshipType: label},
		Counterpart:  counterpart,
	}
}

func TestBuildNetworkCenterAndDirection(t *testing.T) {
	pramod := Person{ID: 1, Name: "Pramod", GroupTag: GroupFamily}
	amit := PersonSummary{ID: 2, Name: "Amit", GroupTag: GroupFriend}

	fromPramod := BuildNetwork(pramod, []Link{link(1, 1, 2, "Brother", amit)}, nil)
	assert.Equal(t, []Node{
		{ID: 1, Label: "Pramod", Group: GroupFamily, Shape: CenterShape},
		{ID: 2, Label: "Amit", Group: GroupFriend},
	}, fromPramod.Nodes)
	assert.Equal(t, []Edge{{From: 1, To: 2, Label: "Brother"}}, fromPramod.Edges)

	amitPerson := Person{ID: 2, Name: "Amit", GroupTag: GroupFriend}
	fromAmit := BuildNetwork(amitPerson, nil, []Link{link(1, 1, 2, "Brother", PersonSummary{ID: 1, Name: "Pramod", GroupTag: GroupFamily})})
	assert.Equal(t, []Node{
		{ID: 2, Label: "Amit", Group: GroupFriend, Shape: CenterShape},
		{ID: 1, Label: "Pramod", Group: GroupFamily},
	}, fromAmit.Nodes)
	assert.Equal(t, []Edge{{From: 1, To: 2, Label: "Brother"}}, fromAmit.Edges)
}

func TestBuildNetworkDeduplicatesNeighboursButKeepsEdges(t *testing.T) {
	center := Person{ID: 1, Name: "Pramod"}
	isha := PersonSummary{ID: 4, Name: "Isha", GroupTag: GroupFamily}
	network := BuildNetwork(center,
		[]Link{link(1, 1, 4, "Brother", isha), link(2, 1, 4, "Friend", isha)},
		[]Link{link(3, 4, 1, "Sister", isha)},
	)
	assert.Len(t, network.Nodes, 2)
	assert.Equal(t, GroupFriend, network.Nodes[0].Group, "center group defaults to friend")
	assert.Equal(t, []Edge{
		{From: 1, To: 4, Label: "Brother"},
		{From: 1, To: 4, Label: "Friend"},
		{From: 4, To: 1, Label: "Sister"},
	}, network.Edges)
}

func TestBuildNetworkDefaultsMissingGroupAndKeepsFirstSeenOrder(t *testing.T) {
	center := Person{ID: 1, Name: "Center", GroupTag: GroupOther}
	network := BuildNetwork(center,
		[]Link{link(1, 1, 3, "A", PersonSummary{ID: 3, Name: "C"}), link(2, 1, 2, "B", PersonSummary{ID: 2, Name: "B", GroupTag: GroupColleague})},
		[]Link{link(3, 3, 1, "C", PersonSummary{ID: 3, Name: "C renamed"})},
	)
	assert.Equal(t, []int64{1, 3, 2}, []int64{network.Nodes[0].ID, network.Nodes[1].ID, network.Nodes[2].ID})
	assert.Equal(t, "C renamed", network.Nodes[1].Label, "last write wins")
	assert.Equal(t, DefaultGroupTag, network.Nodes[1].Group)

	c, ok := network.Center()
	assert.True(t, ok)
	assert.Equal(t, CenterShape, c.Shape)
}

func TestBuildNetworkIsolatedPerson(t *testing.T) {
	network := BuildNetwork(Person{ID: 9, Name: "Solo", GroupTag: GroupOther}, nil, nil)
	assert.Len(t, network.Nodes, 1)
	assert.NotNil(t, network.Edges)
	assert.Empty(t, network.Edges)
}
