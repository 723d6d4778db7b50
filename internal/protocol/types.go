package protocol

import "fmt"

// TransferType is the discriminant that starts every message.
type TransferType uint32

const (
	Acknowledge TransferType = iota
	Failure

	GameConnection
	GameRegistering
	GameConnectionOrRegisteringOK
	GameAlreadyConnected
	GameWrongIdentifiers
	GameUsernameNotAvailable
	GameFailedToRegister

	PlayerDisconnection
	PlayerCheckConnection

	GameRequest
	GameCancelRequest

	GameStarting
	GamePlayerGiveDeckNames
	GamePlayerEnterTurn
	GamePlayerLeaveTurn
	GameUseCard
	GameSendNbOfEffects
	GameAttackWithCreature
	GameQuitGame
	GameNotEnoughEnergy
	GameCardLimitTurnReached

	GamePlayerEnergyUpdated
	GamePlayerHealthUpdated
	GameOpponentHealthUpdated
	GameBoardUpdated
	GameOpponentBoardUpdated
	GameGraveyardUpdated
	GameHandUpdated
	GameOpponentHandUpdated
	GameDeckUpdated
	GameOver

	transferTypeCount
)

var transferTypeNames = [...]string{
	Acknowledge:                   "ACKNOWLEDGE",
	Failure:                       "FAILURE",
	GameConnection:                "GAME_CONNECTION",
	GameRegistering:               "GAME_REGISTERING",
	GameConnectionOrRegisteringOK: "GAME_CONNECTION_OR_REGISTERING_OK",
	GameAlreadyConnected:          "GAME_ALREADY_CONNECTED",
	GameWrongIdentifiers:          "GAME_WRONG_IDENTIFIERS",
	GameUsernameNotAvailable:      "GAME_USERNAME_NOT_AVAILABLE",
	GameFailedToRegister:          "GAME_FAILED_TO_REGISTER",
	PlayerDisconnection:           "PLAYER_DISCONNECTION",
	PlayerCheckConnection:         "PLAYER_CHECK_CONNECTION",
	GameRequest:                   "GAME_REQUEST",
	GameCancelRequest:             "GAME_CANCEL_REQUEST",
	GameStarting:                  "GAME_STARTING",
	GamePlayerGiveDeckNames:       "GAME_PLAYER_GIVE_DECK_NAMES",
	GamePlayerEnterTurn:           "GAME_PLAYER_ENTER_TURN",
	GamePlayerLeaveTurn:           "GAME_PLAYER_LEAVE_TURN",
	GameUseCard:                   "GAME_USE_CARD",
	GameSendNbOfEffects:           "GAME_SEND_NB_OF_EFFECTS",
	GameAttackWithCreature:        "GAME_ATTACK_WITH_CREATURE",
	GameQuitGame:                  "GAME_QUIT_GAME",
	GameNotEnoughEnergy:           "GAME_NOT_ENOUGH_ENERGY",
	GameCardLimitTurnReached:      "GAME_CARD_LIMIT_TURN_REACHED",
	GamePlayerEnergyUpdated:       "GAME_PLAYER_ENERGY_UPDATED",
	GamePlayerHealthUpdated:       "GAME_PLAYER_HEALTH_UPDATED",
	GameOpponentHealthUpdated:     "GAME_OPPONENT_HEALTH_UPDATED",
	GameBoardUpdated:              "GAME_BOARD_UPDATED",
	GameOpponentBoardUpdated:      "GAME_OPPONENT_BOARD_UPDATED",
	GameGraveyardUpdated:          "GAME_GRAVEYARD_UPDATED",
	GameHandUpdated:               "GAME_HAND_UPDATED",
	GameOpponentHandUpdated:       "GAME_OPPONENT_HAND_UPDATED",
	GameDeckUpdated:               "GAME_DECK_UPDATED",
	GameOver:                      "GAME_OVER",
}

func (t TransferType) String() string {
	if t < transferTypeCount {
		return transferTypeNames[t]
	}
	return fmt.Sprintf("TRANSFER_TYPE_%d", uint32(t))
}

// Valid reports whether t is a known transfer type.
func (t TransferType) Valid() bool {
	return t < transferTypeCount
}

// CardToSelect names the zone a selection index points into.
type CardToSelect uint32

const (
	SelectSelfBoard CardToSelect = iota
	SelectOppoBoard
	SelectSelfHand
)

// EndCause is the reason reported in GAME_OVER.
type EndCause uint32

const (
	CauseTenTurnsWithEmptyDeck EndCause = iota
	CauseOutOfHealth
	CauseQuitted
	CauseLostConnection
	CauseEndingServer
)

var endCauseNames = map[EndCause]string{
	CauseTenTurnsWithEmptyDeck: "TEN_TURNS_WITH_EMPTY_DECK",
	CauseOutOfHealth:           "OUT_OF_HEALTH",
	CauseQuitted:               "QUITTED",
	CauseLostConnection:        "LOST_CONNECTION",
	CauseEndingServer:          "ENDING_SERVER",
}

func (c EndCause) String() string {
	if name, ok := endCauseNames[c]; ok {
		return name
	}
	return fmt.Sprintf("END_CAUSE_%d", uint32(c))
}

// CardData is the wire form of a card in a zone update.
type CardData struct {
	ID         uint32
	Attack     uint32
	Health     uint32
	Shield     uint32
	ShieldType uint32
}

// EndGame is the payload of GAME_OVER. WonCard is only sent to the winner
// and Achievements only when the server is not shutting down.
type EndGame struct {
	Cause        EndCause
	ApplyToSelf  bool
	WonCard      uint32
	Achievements []uint32
}
