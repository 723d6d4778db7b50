package constraints

// ID identifies a constraint inside a Table. Player and creature tables use
// separate id spaces.
type ID int

// Player constraints.
const (
	// turn-by-turn
	PlayerCardPickAmount ID = iota
	PlayerEnergyInit
	PlayerHealthGain
	PlayerHealthLoss
	PlayerHealthLossDeckEmpty
	// passive
	PlayerUseCardLimit
	PlayerCallSpellLimit
	PlayerAttackLimit
	PlayerPlaceCreatureLimit
	PlayerCreaturesOnBoardLimit

	PlayerCount int = iota
)

// Creature constraints. A player's team table shares these ids.
const (
	// turn-by-turn
	CreatureHealthGain ID = iota
	CreatureHealthLoss
	CreatureAttackGain
	CreatureAttackLoss
	CreatureShieldGain
	CreatureShieldLoss
	// passive
	CreatureBlockAttacks
	CreatureParalyzed
	CreatureMirrorAttacks
	CreatureBackfireAttacks
	// applied to the remaining team when the creature dies
	CreatureEndTeamHealthGain
	CreatureEndTeamAttackLoss
	CreatureEndTeamShieldLoss

	CreatureCount int = iota
)

// PlayerDefinitions returns the definitions backing a player table.
func PlayerDefinitions() []Definition {
	return []Definition{
		PlayerCardPickAmount:        {Name: "CARD_PICK_AMOUNT", Default: 1, Rule: GetSum},
		PlayerEnergyInit:            {Name: "ENERGY_POINTS_INIT", Default: 10, Rule: GetLast},
		PlayerHealthGain:            {Name: "HEALTH_POINTS_GAIN", Default: 0, Rule: GetSum},
		PlayerHealthLoss:            {Name: "HEALTH_POINTS_LOSS", Default: 0, Rule: GetSum},
		PlayerHealthLossDeckEmpty:   {Name: "HEALTH_POINTS_LOSS_DECK_EMPTY", Default: 5, Rule: GetLast},
		PlayerUseCardLimit:          {Name: "USE_CARD_LIMIT", Default: 100, Rule: GetLast},
		PlayerCallSpellLimit:        {Name: "CALL_SPELL_LIMIT", Default: 100, Rule: GetLast},
		PlayerAttackLimit:           {Name: "ATTACK_WITH_CREATURE_LIMIT", Default: 100, Rule: GetLast},
		PlayerPlaceCreatureLimit:    {Name: "PLACE_CREATURE_LIMIT", Default: 6, Rule: GetLast},
		PlayerCreaturesOnBoardLimit: {Name: "CREATURES_ON_BOARD_LIMIT", Default: 6, Rule: GetLast},
	}
}

// CreatureDefinitions returns the definitions backing a creature or team table.
func CreatureDefinitions() []Definition {
	return []Definition{
		CreatureHealthGain:        {Name: "HEALTH_GAIN", Rule: GetSum},
		CreatureHealthLoss:        {Name: "HEALTH_LOSS", Rule: GetSum},
		CreatureAttackGain:        {Name: "ATTACK_GAIN", Rule: GetSum},
		CreatureAttackLoss:        {Name: "ATTACK_LOSS", Rule: GetSum},
		CreatureShieldGain:        {Name: "SHIELD_GAIN", Rule: GetSum},
		CreatureShieldLoss:        {Name: "SHIELD_LOSS", Rule: GetSum},
		CreatureBlockAttacks:      {Name: "BLOCK_ATTACKS", Rule: GetFirst, Value: ValueGetDecrement},
		CreatureParalyzed:         {Name: "PARALYZED", Rule: GetLast},
		CreatureMirrorAttacks:     {Name: "MIRROR_ATTACKS", Rule: GetLast},
		CreatureBackfireAttacks:   {Name: "BACKFIRE_ATTACKS", Rule: GetLast},
		CreatureEndTeamHealthGain: {Name: "END_TEAM_HEALTH_GAIN", Rule: GetSum},
		CreatureEndTeamAttackLoss: {Name: "END_TEAM_ATTACK_LOSS", Rule: GetSum},
		CreatureEndTeamShieldLoss: {Name: "END_TEAM_SHIELD_LOSS", Rule: GetSum},
	}
}
