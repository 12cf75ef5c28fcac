package events

import "testing"

func TestBusReplaysBacklogOnSubscribe(t *testing.T) {
	bus := NewBus()
	bus.PublishEquipment(EquipmentChange{ItemID: "hammer", Equipped: false})
	bus.PublishEquipment(EquipmentChange{ItemID: "hammer", Equipped: true, SlotType: "tool"})

	var got []EquipmentChange
	bus.SubscribeEquipment(func(ev EquipmentChange) { got = append(got, ev) })

	if len(got) != 2 {
		t.Fatalf("expected 2 replayed events, got %d", len(got))
	}
	if got[0].Equipped || !got[1].Equipped {
		t.Fatalf("replay out of emission order: %+v", got)
	}

	bus.PublishEquipment(EquipmentChange{ItemID: "shield", Equipped: true})
	if len(got) != 3 || got[2].ItemID != "shield" {
		t.Fatalf("live delivery after replay failed: %+v", got)
	}
}

func TestBusLevelEventsIndependentOfEquipment(t *testing.T) {
	bus := NewBus()
	bus.PublishLevel(LevelChange{LevelIndex: 1, PreviousIndex: 0, Level: 2})

	var levels []LevelChange
	var equips []EquipmentChange
	bus.SubscribeLevel(func(ev LevelChange) { levels = append(levels, ev) })
	bus.SubscribeEquipment(func(ev EquipmentChange) { equips = append(equips, ev) })

	if len(levels) != 1 || levels[0].Level != 2 {
		t.Fatalf("expected level backlog replay, got %+v", levels)
	}
	if len(equips) != 0 {
		t.Fatalf("equipment subscriber must not see level events: %+v", equips)
	}
}
