package domain

import "strings"

// Role represents a player's in-game class as reported by the host
type Role string

const (
	RoleNone           Role = "None"
	RoleClassD         Role = "ClassD"
	RoleScientist      Role = "Scientist"
	RoleFacilityGuard  Role = "FacilityGuard"
	RoleNtfPrivate     Role = "NtfPrivate"
	RoleNtfSergeant    Role = "NtfSergeant"
	RoleNtfSpecialist  Role = "NtfSpecialist"
	RoleNtfCaptain     Role = "NtfCaptain"
	RoleChaosConscript Role = "ChaosConscript"
	RoleChaosRifleman  Role = "ChaosRifleman"
	RoleChaosMarauder  Role = "ChaosMarauder"
	RoleChaosRepressor Role = "ChaosRepressor"
	RoleSpectator      Role = "Spectator"
	RoleOverwatch      Role = "Overwatch"
	RoleTutorial       Role = "Tutorial"
	RoleScp049         Role = "Scp049"
	RoleScp0492        Role = "Scp0492"
	RoleScp079         Role = "Scp079"
	RoleScp096         Role = "Scp096"
	RoleScp106         Role = "Scp106"
	RoleScp173         Role = "Scp173"
	RoleScp939         Role = "Scp939"
	RoleScp3114        Role = "Scp3114"
)

// TrackedRole is the only role whose members are scored
const TrackedRole = RoleClassD

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}

// IsTracked returns true if members of this role accumulate rebellion points
func (r Role) IsTracked() bool {
	return r == TrackedRole
}

// Team represents the faction a role belongs to
type Team string

const (
	TeamSCPs             Team = "SCPs"
	TeamFoundationForces Team = "FoundationForces"
	TeamChaosInsurgency  Team = "ChaosInsurgency"
	TeamScientists       Team = "Scientists"
	TeamClassD           Team = "ClassD"
	TeamDead             Team = "Dead"
	TeamOtherAlive       Team = "OtherAlive"
)

// String returns the string representation of the team
func (t Team) String() string {
	return string(t)
}

// IsProtected returns true for the defender side whose injuries count as rebellion
func (t Team) IsProtected() bool {
	return t == TeamFoundationForces || t == TeamScientists
}

// IsHostileAlly returns true for the faction that sides with Class-D but is not scored
func (t Team) IsHostileAlly() bool {
	return t == TeamChaosInsurgency
}

// IsRebelSide returns true for teams whose armed members make nearby Class-D suspicious
func (t Team) IsRebelSide() bool {
	return t == TeamClassD || t == TeamChaosInsurgency
}

// TeamForRole derives the team of a role when the host does not report one
func TeamForRole(r Role) Team {
	switch {
	case r == RoleClassD:
		return TeamClassD
	case r == RoleScientist:
		return TeamScientists
	case r == RoleFacilityGuard || strings.HasPrefix(string(r), "Ntf"):
		return TeamFoundationForces
	case strings.HasPrefix(string(r), "Chaos"):
		return TeamChaosInsurgency
	case strings.HasPrefix(string(r), "Scp"):
		return TeamSCPs
	case r == RoleTutorial:
		return TeamOtherAlive
	default:
		return TeamDead
	}
}
