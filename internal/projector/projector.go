// Package projector maps a compose snapshot onto synthetic Kubernetes
// resource records: Pods, Services, Endpoints, and Deployments, each with a
// stable identity derived from internal/ids.
package projector

import (
	"strconv"
	"time"

	corev1 "k8s.io/api/core/v1"
	appsv1 "k8s.io/api/apps/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/intstr"

	"github.com/baptisterajaut/h2c-api/internal/compose"
	"github.com/baptisterajaut/h2c-api/internal/ids"
)

// ReservedLabel marks the façade's own compose service so the projector can
// exclude it from every listing, per the "exclusion of the façade from its
// own listings" design note. Filtering on this label rather than on the
// service name survives the operator renaming the façade service.
const ReservedLabel = "h2c.io/facade"

// Projector turns a Snapshot into synthetic resources. StartTime is the
// process start, shared by every projected Pod's status.
type Projector struct {
	StartTime time.Time
}

// New returns a Projector stamped with the current time as the process
// start used for every Pod's startTime.
func New() *Projector {
	return &Projector{StartTime: time.Now()}
}

// Workloads filters out the façade's own compose service by ReservedLabel,
// returning only the services eligible for projection, in snapshot order.
func Workloads(snap *compose.Snapshot) []compose.Service {
	out := make([]compose.Service, 0, len(snap.Services))
	for _, svc := range snap.Services {
		if svc.Labels[ReservedLabel] == "true" {
			continue
		}
		out = append(out, svc)
	}
	return out
}

func labelsFor(svc compose.Service) map[string]string {
	l := map[string]string{"app": svc.Name}
	for k, v := range svc.Labels {
		if k == ReservedLabel {
			continue
		}
		l[k] = v
	}
	return l
}

// Pod projects a single compose service into a running Pod. rv is stamped
// onto ObjectMeta.ResourceVersion as the global counter at response time,
// so a client polling for change can detect one even though the pod itself
// is read-only.
func (p *Projector) Pod(project string, svc compose.Service, rv string) *corev1.Pod {
	uid := ids.PodUID(project, svc.Name)
	podIP := ids.PodIP(project, svc.Name)
	hostIP := ids.HostIP(project, svc.Name)
	start := metav1.NewTime(p.StartTime)

	container := corev1.Container{
		Name:    svc.Name,
		Image:   svc.Image,
		Command: svc.Command,
	}
	for k, v := range svc.Environment {
		container.Env = append(container.Env, corev1.EnvVar{Name: k, Value: v})
	}
	for _, port := range svc.Ports {
		container.Ports = append(container.Ports, corev1.ContainerPort{
			ContainerPort: int32(port.Target),
			Protocol:      corev1.Protocol(protoUpper(port.Protocol)),
		})
	}

	return &corev1.Pod{
		TypeMeta: metav1.TypeMeta{Kind: "Pod", APIVersion: "v1"},
		ObjectMeta: metav1.ObjectMeta{
			Name:            svc.Name + "-0",
			Namespace:       project,
			UID:             uid,
			Labels:          labelsFor(svc),
			ResourceVersion: rv,
		},
		Spec: corev1.PodSpec{
			Containers: []corev1.Container{container},
		},
		Status: corev1.PodStatus{
			Phase:     corev1.PodRunning,
			HostIP:    hostIP,
			PodIP:     podIP,
			StartTime: &start,
			Conditions: []corev1.PodCondition{
				{Type: corev1.PodReady, Status: corev1.ConditionTrue},
			},
		},
	}
}

// Service projects a compose service into a ClusterIP Service.
func (p *Projector) Service(project string, svc compose.Service, rv string) *corev1.Service {
	clusterIP := ids.ClusterIP(project, svc.Name)

	var ports []corev1.ServicePort
	for _, port := range svc.Ports {
		sp := corev1.ServicePort{
			Name:     portName(port),
			Port:     int32(port.Target),
			Protocol: corev1.Protocol(protoUpper(port.Protocol)),
			TargetPort: intstr.IntOrString{
				Type:   intstr.Int,
				IntVal: int32(port.Target),
			},
		}
		if port.Published != "" {
			if np, err := strconv.Atoi(port.Published); err == nil {
				sp.NodePort = int32(np)
			}
		}
		ports = append(ports, sp)
	}

	return &corev1.Service{
		TypeMeta: metav1.TypeMeta{Kind: "Service", APIVersion: "v1"},
		ObjectMeta: metav1.ObjectMeta{
			Name:            svc.Name,
			Namespace:       project,
			UID:             ids.PodUID(project, svc.Name+"-svc"),
			Labels:          labelsFor(svc),
			ResourceVersion: rv,
		},
		Spec: corev1.ServiceSpec{
			Type:      corev1.ServiceTypeClusterIP,
			ClusterIP: clusterIP,
			Selector:  map[string]string{"app": svc.Name},
			Ports:     ports,
		},
	}
}

// Endpoints projects the single-address Endpoints object backing a Service.
func (p *Projector) Endpoints(project string, svc compose.Service, rv string) *corev1.Endpoints {
	podIP := ids.PodIP(project, svc.Name)

	var ports []corev1.EndpointPort
	for _, port := range svc.Ports {
		ports = append(ports, corev1.EndpointPort{
			Name:     portName(port),
			Port:     int32(port.Target),
			Protocol: corev1.Protocol(protoUpper(port.Protocol)),
		})
	}

	return &corev1.Endpoints{
		TypeMeta: metav1.TypeMeta{Kind: "Endpoints", APIVersion: "v1"},
		ObjectMeta: metav1.ObjectMeta{
			Name:            svc.Name,
			Namespace:       project,
			Labels:          labelsFor(svc),
			ResourceVersion: rv,
		},
		Subsets: []corev1.EndpointSubset{
			{
				Addresses: []corev1.EndpointAddress{
					{
						IP: podIP,
						TargetRef: &corev1.ObjectReference{
							Kind:      "Pod",
							Name:      svc.Name + "-0",
							Namespace: project,
						},
					},
				},
				Ports: ports,
			},
		},
	}
}

// Deployment projects a compose service into a single-replica Deployment.
func (p *Projector) Deployment(project string, svc compose.Service, rv string) *appsv1.Deployment {
	one := int32(1)
	return &appsv1.Deployment{
		TypeMeta: metav1.TypeMeta{Kind: "Deployment", APIVersion: "apps/v1"},
		ObjectMeta: metav1.ObjectMeta{
			Name:            svc.Name,
			Namespace:       project,
			Labels:          labelsFor(svc),
			ResourceVersion: rv,
		},
		Spec: appsv1.DeploymentSpec{
			Replicas: &one,
			Selector: &metav1.LabelSelector{MatchLabels: map[string]string{"app": svc.Name}},
			Strategy: appsv1.DeploymentStrategy{Type: appsv1.RollingUpdateDeploymentStrategyType},
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{Labels: labelsFor(svc)},
			},
		},
		Status: appsv1.DeploymentStatus{
			Replicas:          one,
			ReadyReplicas:     one,
			AvailableReplicas: one,
		},
	}
}

func protoUpper(p string) string {
	switch p {
	case "udp", "UDP":
		return "UDP"
	default:
		return "TCP"
	}
}

func portName(p compose.Port) string {
	return strconv.Itoa(int(p.Target))
}
