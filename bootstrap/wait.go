package bootstrap

import (
	"context"
	"time"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/uthrapathy-m/cks-course-environment/cni"
	"github.com/uthrapathy-m/cks-course-environment/domain"
)

const networkPollInterval = 5 * time.Second

// waitForNetworkReady polls the plugin's namespace until at least one of
// its pods reports Ready, or the timeout expires. List errors are treated
// as "not ready yet": right after kubeadm init the API server may still be
// settling.
func waitForNetworkReady(ctx context.Context, recipe cni.Recipe, timeout time.Duration) error {
	restCfg, err := clientcmd.BuildConfigFromFlags("", domain.AdminKubeconfigPath)
	if err != nil {
		return err
	}

	client, err := kubernetes.NewForConfig(restCfg)
	if err != nil {
		return err
	}

	return wait.PollUntilContextTimeout(ctx, networkPollInterval, timeout, true, func(ctx context.Context) (bool, error) {
		pods, err := client.CoreV1().Pods(recipe.Namespace).List(ctx, metav1.ListOptions{
			LabelSelector: recipe.Selector,
		})
		if err != nil {
			return false, nil
		}

		for _, pod := range pods.Items {
			if podReady(pod) {
				return true, nil
			}
		}
		return false, nil
	})
}

func podReady(pod corev1.Pod) bool {
	for _, condition := range pod.Status.Conditions {
		if condition.Type == corev1.PodReady && condition.Status == corev1.ConditionTrue {
			return true
		}
	}
	return false
}
