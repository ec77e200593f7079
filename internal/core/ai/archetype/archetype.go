package archetype

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrUnknownArchetype = errors.New("unknown archetype")
	ErrUnknownNode      = errors.New("unknown node")
)

// EnemyType identifies one of the built-in archetypes. The numeric value is
// also what trees see through the entity_type condition.
type EnemyType uint32

const (
	Grunt EnemyType = iota
	Sniper
	Tank
	Scout
	Boss
)

var enemyNames = [...]string{
	Grunt:  "grunt",
	Sniper: "sniper",
	Tank:   "tank",
	Scout:  "scout",
	Boss:   "boss",
}

func (e EnemyType) String() string {
	if int(e) < len(enemyNames) {
		return enemyNames[e]
	}
	return "enemy_" + strconv.FormatUint(uint64(e), 10)
}

// EnemyTypes lists the built-in archetypes in code order.
func EnemyTypes() []EnemyType {
	return []EnemyType{Grunt, Sniper, Tank, Scout, Boss}
}

// ParseEnemyType accepts an archetype name in any case or its numeric code.
func ParseEnemyType(s string) (EnemyType, error) {
	for i, name := range enemyNames {
		if strings.EqualFold(name, s) {
			return EnemyType(i), nil
		}
	}
	if n, err := strconv.ParseUint(s, 10, 32); err == nil && int(n) < len(enemyNames) {
		return EnemyType(n), nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownArchetype, s)
}
